package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
	"github.com/crev-dev/go-crev/pkg/store"
)

var (
	trustLevelFlag    string
	trustCommentFlag  string
	trustOverrideFlag []string
)

var trustCmd = &cobra.Command{
	Use:   "trust <id> [id...]",
	Short: "Draft and commit a trust proof naming one or more subject identities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level := proof.Level(trustLevelFlag)
		subjects := make([]identity.Id, len(args))
		for i, a := range args {
			subjects[i] = identity.Id(a)
		}
		path, err := draftTrust(level, subjects, trustCommentFlag, parseIds(trustOverrideFlag))
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	trustCmd.Flags().StringVar(&trustLevelFlag, "level", string(proof.LevelMedium), "trust level: high, medium, low, none, distrust")
	trustCmd.Flags().StringVar(&trustCommentFlag, "comment", "", "free-text rationale")
	trustCmd.Flags().StringSliceVar(&trustOverrideFlag, "override", nil, "identities whose proofs about the same subjects are suppressed")
	rootCmd.AddCommand(trustCmd)
}

func parseIds(raw []string) []identity.Id {
	ids := make([]identity.Id, len(raw))
	for i, s := range raw {
		ids[i] = identity.Id(strings.TrimSpace(s))
	}
	return ids
}

// draftTrust signs and commits a trust proof from the active identity. It is
// shared by the `trust` command and `id untrust`'s distrust shorthand.
func draftTrust(level proof.Level, subjects []identity.Id, comment string, overrides []identity.Id) (string, error) {
	id, seed, err := app.unlockActive()
	if err != nil {
		return "", err
	}

	ids := make([]proof.IdentityRecord, len(subjects))
	for i, s := range subjects {
		ids[i] = proof.IdentityRecord{IdType: "crev", Id: s}
	}
	var overrideRecords []proof.IdentityRecord
	for _, o := range overrides {
		overrideRecords = append(overrideRecords, proof.IdentityRecord{IdType: "crev", Id: o})
	}

	body := &proof.TrustBody{
		Common: proof.Common{
			Version: proof.SchemaVersion,
			Kind:    string(proof.KindTrust),
			Date:    time.Now().UTC(),
			From:    proof.IdentityRecord{IdType: "crev", Id: id},
		},
		Ids:      ids,
		Trust:    level,
		Comment:  comment,
		Override: overrideRecords,
	}

	salt, err := app.hostSalt()
	if err != nil {
		return "", err
	}
	s := store.New()
	return s.Commit(app.proofsDir(), seed, salt, body)
}
