package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crev-dev/go-crev/pkg/digest"
	"github.com/crev-dev/go-crev/pkg/proof"
	"github.com/crev-dev/go-crev/pkg/store"
)

var (
	reviewSourceFlag        string
	reviewPathFlag          string
	reviewThoroughnessFlag  string
	reviewUnderstandingFlag string
	reviewRatingFlag        string
	reviewCommentFlag       string
	reviewUnmaintainedFlag  bool
	reviewOverrideFlag      []string
	reviewAdvisoryFlag      []string
	reviewIssueFlag         []string
)

var reviewCmd = &cobra.Command{
	Use:   "review <name> <version>",
	Short: "Draft and commit a package review proof for a local source tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, version := args[0], args[1]

		d, err := digest.Digest(app.ctx, reviewPathFlag, digest.IncludeAll)
		if err != nil {
			return fmt.Errorf("digest %s: %w", reviewPathFlag, err)
		}

		advisories, err := parseAdvisories(reviewAdvisoryFlag)
		if err != nil {
			return err
		}
		issues, err := parseIssues(reviewIssueFlag)
		if err != nil {
			return err
		}

		id, seed, err := app.unlockActive()
		if err != nil {
			return err
		}

		var overrides []proof.IdentityRecord
		for _, o := range parseIds(reviewOverrideFlag) {
			overrides = append(overrides, proof.IdentityRecord{IdType: "crev", Id: o})
		}

		var flags *proof.Flags
		if reviewUnmaintainedFlag {
			flags = &proof.Flags{Unmaintained: true}
		}

		body := &proof.PackageReviewBody{
			Common: proof.Common{
				Version: proof.SchemaVersion,
				Kind:    string(proof.KindPackageReview),
				Date:    time.Now().UTC(),
				From:    proof.IdentityRecord{IdType: "crev", Id: id},
			},
			Package: proof.PackageInfo{
				Source:  reviewSourceFlag,
				Name:    name,
				Version: version,
				Digest:  proof.DigestBytes(d),
			},
			Review: &proof.ReviewInfo{
				Thoroughness:  proof.Level(reviewThoroughnessFlag),
				Understanding: proof.Level(reviewUnderstandingFlag),
				Rating:        proof.Rating(reviewRatingFlag),
			},
			Advisories: advisories,
			Issues:     issues,
			Flags:      flags,
			Comment:    reviewCommentFlag,
			Override:   overrides,
		}

		salt, err := app.hostSalt()
		if err != nil {
			return err
		}
		s := store.New()
		path, err := s.Commit(app.proofsDir(), seed, salt, body)
		if err != nil {
			return fmt.Errorf("commit review: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewSourceFlag, "source", "", "package registry/source URL (required)")
	reviewCmd.Flags().StringVar(&reviewPathFlag, "path", "", "local path to the extracted package source tree (required)")
	reviewCmd.Flags().StringVar(&reviewThoroughnessFlag, "thoroughness", string(proof.LevelLow), "review thoroughness: high, medium, low, none")
	reviewCmd.Flags().StringVar(&reviewUnderstandingFlag, "understanding", string(proof.LevelLow), "review understanding: high, medium, low, none")
	reviewCmd.Flags().StringVar(&reviewRatingFlag, "rating", string(proof.RatingPositive), "rating: strong, positive, neutral, negative, dangerous")
	reviewCmd.Flags().StringVar(&reviewCommentFlag, "comment", "", "free-text rationale")
	reviewCmd.Flags().BoolVar(&reviewUnmaintainedFlag, "unmaintained", false, "flag the package as unmaintained")
	reviewCmd.Flags().StringSliceVar(&reviewOverrideFlag, "override", nil, "identities whose reviews of this version are suppressed")
	reviewCmd.Flags().StringSliceVar(&reviewAdvisoryFlag, "advisory", nil, "id:range:severity, range one of all|major|minor, repeatable")
	reviewCmd.Flags().StringSliceVar(&reviewIssueFlag, "issue", nil, "id:severity, repeatable")
	_ = reviewCmd.MarkFlagRequired("source")
	_ = reviewCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(reviewCmd)
}

func parseAdvisories(raw []string) ([]proof.Advisory, error) {
	var out []proof.Advisory
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("bad --advisory %q: want id:range:severity", r)
		}
		out = append(out, proof.Advisory{
			Ids:      strings.Split(parts[0], ","),
			Range:    proof.RangeKind(parts[1]),
			Severity: proof.Level(parts[2]),
		})
	}
	return out, nil
}

func parseIssues(raw []string) ([]proof.Issue, error) {
	var out []proof.Issue
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad --issue %q: want id:severity", r)
		}
		out = append(out, proof.Issue{Id: parts[0], Severity: proof.Level(parts[1])})
	}
	return out, nil
}
