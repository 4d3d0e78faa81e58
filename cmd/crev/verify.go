package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
	"github.com/crev-dev/go-crev/pkg/verify"
	"github.com/crev-dev/go-crev/pkg/wot"
)

var (
	verifyInputFlag         string
	verifyRootFlag          string
	verifyOutputFlag        string
	verifyTrustLevelFlag    string
	verifyThoroughnessFlag  string
	verifyUnderstandingFlag string
	verifyRedundancyFlag    int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a dependency list against the web of trust",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := readEntries(verifyInputFlag)
		if err != nil {
			return err
		}

		s, err := app.openStore()
		if err != nil {
			return err
		}

		root, err := verifyRootId()
		if err != nil {
			return err
		}
		trust := wot.Propagate(s, root, wot.DefaultPolicy())

		thresholds := verify.Thresholds{
			TrustLevelMin:    proof.Level(firstNonEmpty(verifyTrustLevelFlag, app.cfg.Thresholds.TrustLevel)),
			ThoroughnessMin:  proof.Level(firstNonEmpty(verifyThoroughnessFlag, app.cfg.Thresholds.Thoroughness)),
			UnderstandingMin: proof.Level(firstNonEmpty(verifyUnderstandingFlag, app.cfg.Thresholds.Understanding)),
			Redundancy:       intOrDefault(verifyRedundancyFlag, app.cfg.Thresholds.Redundancy),
		}

		engine := &verify.Engine{Store: s, Trust: trust, Thresholds: thresholds}
		rows := engine.VerifyAll(app.ctx, entries)

		if verifyOutputFlag == "json" {
			if err := printJSON(verify.NewReport(rows)); err != nil {
				return err
			}
		} else {
			printTable(rows)
		}

		if verify.Summary(rows) {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyInputFlag, "input", "", "path to a JSON array of entries to verify (default: stdin)")
	verifyCmd.Flags().StringVar(&verifyRootFlag, "root", "", "root identity to propagate trust from (default: config trusted-root)")
	verifyCmd.Flags().StringVar(&verifyOutputFlag, "output", "table", "output format: table or json")
	verifyCmd.Flags().StringVar(&verifyTrustLevelFlag, "trust-level", "", "minimum effective trust level: high, medium, low, none")
	verifyCmd.Flags().StringVar(&verifyThoroughnessFlag, "thoroughness", "", "minimum review thoroughness: high, medium, low, none")
	verifyCmd.Flags().StringVar(&verifyUnderstandingFlag, "understanding", "", "minimum review understanding: high, medium, low, none")
	verifyCmd.Flags().IntVar(&verifyRedundancyFlag, "redundancy", 0, "number of independent passing reviews required (default: config thresholds.redundancy)")
	rootCmd.AddCommand(verifyCmd)
}

func verifyRootId() (identity.Id, error) {
	if verifyRootFlag != "" {
		return identity.Id(verifyRootFlag), nil
	}
	if app.cfg.TrustedRoot != "" {
		return identity.Id(app.cfg.TrustedRoot), nil
	}
	if app.cfg.ActiveId != "" {
		return identity.Id(app.cfg.ActiveId), nil
	}
	return "", fmt.Errorf("no root identity: set trusted-root in config, --root, or an active identity")
}

func readEntries(path string) ([]verify.Entry, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	var entries []verify.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}
	return entries, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(rows []verify.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tNAME\tVERSION\tREVIEWS\tDIAGNOSTICS")
	for _, r := range rows {
		diag := ""
		if len(r.Diagnostics) > 0 {
			diag = r.Diagnostics[0]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Status, r.Name, r.Version, len(r.PassingReviews), diag)
	}
	w.Flush()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func intOrDefault(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
