package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Manage local identities",
}

var idURLFlag string

var idNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new identity and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, seed, err := identity.Generate()
		if err != nil {
			return fmt.Errorf("generate identity: %w", err)
		}
		pass, err := app.passphrase()
		if err != nil {
			return err
		}
		locked, err := identity.Lock(id, idURLFlag, seed, pass, identity.DefaultKDFParams())
		if err != nil {
			return fmt.Errorf("lock identity: %w", err)
		}
		if err := app.saveLockedId(locked); err != nil {
			return err
		}
		app.cfg.ActiveId = string(id)
		if err := app.saveConfig(); err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var idListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := os.ReadDir(app.idsDir())
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("list identities: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
				continue
			}
			id := strings.TrimSuffix(e.Name(), ".yaml")
			marker := " "
			if id == app.cfg.ActiveId {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}
		return nil
	},
}

var idSwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Make an existing identity active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := identity.Id(args[0])
		if _, err := os.Stat(lockedIdPath(app.idsDir(), id)); err != nil {
			return fmt.Errorf("unknown identity %s: %w", id, err)
		}
		app.cfg.ActiveId = string(id)
		return app.saveConfig()
	},
}

var idExportOutputFlag string

var idExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a LockedId file so the identity can be moved to another machine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := identity.Id(args[0])
		data, err := os.ReadFile(lockedIdPath(app.idsDir(), id))
		if err != nil {
			return fmt.Errorf("read identity %s: %w", id, err)
		}
		if idExportOutputFlag == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(idExportOutputFlag, data, 0o600)
	},
}

var idImportActivateFlag bool

var idImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import a LockedId file exported from another machine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		var locked identity.LockedId
		if err := yaml.Unmarshal(data, &locked); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		if err := app.saveLockedId(&locked); err != nil {
			return err
		}
		if idImportActivateFlag {
			app.cfg.ActiveId = string(locked.PublicId)
			if err := app.saveConfig(); err != nil {
				return err
			}
		}
		fmt.Println(locked.PublicId)
		return nil
	},
}

var (
	idUntrustComment  string
	idUntrustOverride []string
)

var idUntrustCmd = &cobra.Command{
	Use:   "untrust <id> [id...]",
	Short: "Shorthand for 'trust --level distrust'",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjects := make([]identity.Id, len(args))
		for i, a := range args {
			subjects[i] = identity.Id(a)
		}
		path, err := draftTrust(proof.LevelDistrust, subjects, idUntrustComment, parseIds(idUntrustOverride))
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	idNewCmd.Flags().StringVar(&idURLFlag, "url", "", "proof repository URL this identity publishes to")
	idExportCmd.Flags().StringVar(&idExportOutputFlag, "output", "", "write to this path instead of stdout")
	idImportCmd.Flags().BoolVar(&idImportActivateFlag, "activate", false, "make the imported identity active")
	idUntrustCmd.Flags().StringVar(&idUntrustComment, "comment", "", "free-text rationale")
	idUntrustCmd.Flags().StringSliceVar(&idUntrustOverride, "override", nil, "identities whose proofs about the same subjects are suppressed")

	idCmd.AddCommand(idNewCmd, idListCmd, idSwitchCmd, idExportCmd, idImportCmd, idUntrustCmd)
	rootCmd.AddCommand(idCmd)
}
