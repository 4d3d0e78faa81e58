package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/crev-dev/go-crev/pkg/config"
	"github.com/crev-dev/go-crev/pkg/logctx"
)

var rootCmd = &cobra.Command{
	Use:   "crev",
	Short: "Distributed, cryptographically verifiable code review",
	Long:  "crev drafts and verifies signed trust and code-review proofs against a web of trust.",
}

var (
	cfgFileFlag string
	dataDirFlag string
)

// app is the resolved state every subcommand's RunE operates against,
// populated once by rootCmd's PersistentPreRunE.
var app *appContext

type appContext struct {
	ctx     context.Context
	cfg     config.Config
	cfgPath string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFileFlag, "config", "", "path to config file (default ~/.config/crev/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override the configured data directory")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfgPath, err := resolveConfigPath(cfgFileFlag)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}

		log, err := logctx.NewDevelopment()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		ctx := logctx.WithLogger(context.Background(), log)

		app = &appContext{ctx: ctx, cfg: cfg, cfgPath: cfgPath}
		return nil
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "crev", "config.yaml"), nil
}

// Execute runs the root command, matching the teacher's cmd/localk8s
// Execute() shape: print the error and exit 1, cobra having already printed
// usage for flag-parsing failures.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
