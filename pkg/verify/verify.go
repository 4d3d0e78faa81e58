// Package verify implements the verification engine of spec.md §4.6:
// per-package-version status computation from trusted reviews, advisories,
// and issues, combined with digest matching against a local source tree.
package verify

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/crev-dev/go-crev/pkg/digest"
	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/logctx"
	"github.com/crev-dev/go-crev/pkg/proof"
	"github.com/crev-dev/go-crev/pkg/store"
	"github.com/crev-dev/go-crev/pkg/wot"
)

// Status is the per-entry outcome label. Comparisons go through Severity,
// which expresses spec.md §4.6 step 7's precedence (dangerous > flagged >
// none > pass); the iota order below is not a severity order (Local comes
// last but ranks with Pass).
type Status int

const (
	StatusPass Status = iota
	StatusNone
	StatusFlagged
	StatusDangerous
	StatusLocal
)

// MarshalJSON renders a Status as its String() form, the shape the
// `--output json` report (see report.go) exposes to CI consumers.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusNone:
		return "none"
	case StatusFlagged:
		return "flagged"
	case StatusDangerous:
		return "dangerous"
	case StatusLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Severity orders statuses for the "worse than pass" summary check; Local
// is deliberately excluded from the ranking (it is neither better nor worse
// than a registry verdict — there simply is none).
func (s Status) Severity() int {
	switch s {
	case StatusPass:
		return 0
	case StatusNone:
		return 1
	case StatusFlagged:
		return 2
	case StatusDangerous:
		return 3
	default:
		return 0
	}
}

// Thresholds are the filter knobs spec.md §4.6 takes per query.
type Thresholds struct {
	TrustLevelMin    proof.Level
	ThoroughnessMin  proof.Level
	UnderstandingMin proof.Level
	Redundancy       int
}

// Entry is one package-manager-adapter row to verify. Derived columns the
// adapter already knows (lines of code, unsafe-code count, owners, download
// counts) are carried through to Row unmodified, per spec.md §4.6's final
// paragraph.
type Entry struct {
	Source    string `json:"source,omitempty"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	LocalPath string `json:"local_path,omitempty"`

	LinesOfCode int      `json:"lines_of_code,omitempty"`
	UnsafeCount int      `json:"unsafe_count,omitempty"`
	Owners      []string `json:"owners,omitempty"`
	Downloads   int64    `json:"downloads,omitempty"`
}

// Row is one verified entry's outcome.
type Row struct {
	Entry
	Status      Status   `json:"status"`
	Digest      []byte   `json:"digest,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`

	PassingReviews []identity.Id `json:"passing_reviews,omitempty"` // trusted, filter-passing, positive-rated reviewers
	Unmaintained   bool          `json:"unmaintained,omitempty"`
}

// Engine evaluates entries against a proof store and a precomputed WoT
// result.
type Engine struct {
	Store        *store.Store
	Trust        wot.Result
	Thresholds   Thresholds
	DigestFilter digest.Filter
	Concurrency  int
}

// VerifyAll evaluates every entry, in parallel bounded by Concurrency (0
// means GOMAXPROCS), mirroring pkg/digest.DigestMany and pkg/store.Ingest's
// fan-out shape for the other embarrassingly-parallel-over-independent-units
// workload named in spec.md §5. Results are returned sorted by
// (name, version) regardless of completion order, per spec.md §5's ordering
// guarantee.
func (e *Engine) VerifyAll(ctx context.Context, entries []Entry) []Row {
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	rows := make([]Row, len(entries))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			rows[i] = e.verifyEntry(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Version < rows[j].Version
	})
	return rows
}

// Summary reports whether any row is worse than pass, the signal spec.md
// §4.6 says should drive a non-zero process exit for CI use.
func Summary(rows []Row) bool {
	for _, r := range rows {
		if r.Status.Severity() > StatusPass.Severity() {
			return true
		}
	}
	return false
}

func (e *Engine) verifyEntry(ctx context.Context, entry Entry) Row {
	row := Row{Entry: entry}

	if entry.Source == "" {
		row.Status = StatusLocal
		return row
	}

	log := logctx.FromContext(ctx)

	d, err := digest.Digest(ctx, entry.LocalPath, e.DigestFilter)
	if err != nil {
		row.Status = StatusNone
		row.Diagnostics = append(row.Diagnostics, "digest: "+err.Error())
		log.Warnw("verify: digest failed", "name", entry.Name, "version", entry.Version, "error", err)
		return row
	}
	row.Digest = d

	records := e.Store.ReviewsOfPackage(entry.Source, entry.Name)
	trusted := e.filterTrusted(records)

	matching, suppressed := e.applyReviewOverrides(trusted, entry.Version)

	pass, mismatch, unmaintained := e.evaluateReviews(matching, suppressed, entry.Version, d)
	row.PassingReviews = pass
	row.Unmaintained = unmaintained
	if mismatch {
		row.Diagnostics = append(row.Diagnostics, "digest mismatch: a trusted review names a different tree digest")
	}

	status := StatusNone
	if len(pass) >= max(1, e.Thresholds.Redundancy) {
		status = StatusPass
	}

	advisoryStatus, diags := e.evaluateAdvisoriesAndIssues(trusted, entry.Version)
	row.Diagnostics = append(row.Diagnostics, diags...)
	if advisoryStatus.Severity() > status.Severity() {
		status = advisoryStatus
	}

	row.Status = status
	return row
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
