package digest

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Request is one tree to digest, identified by an opaque Key the caller can
// use to correlate results (e.g. a package name@version).
type Request struct {
	Key  string
	Root string
}

// Result pairs a Request's Key with its outcome. Err is non-nil exactly for
// entries that failed independently of the others (spec.md §5: "each
// computation is independent").
type Result struct {
	Key    string
	Digest []byte
	Err    error
}

// DigestMany computes the digest of every request's Root in parallel,
// bounded by concurrency (0 means GOMAXPROCS), the "embarrassingly parallel
// over dependencies" point named in spec.md §5. A failure on one entry never
// aborts the others; it surfaces only in that entry's Result.Err.
func DigestMany(ctx context.Context, requests []Request, filter Filter, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(requests))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = Result{Key: req.Key, Err: ctx.Err()}
				return nil
			default:
			}
			d, err := Digest(ctx, req.Root, filter)
			results[i] = Result{Key: req.Key, Digest: d, Err: err}
			return nil
		})
	}
	_ = g.Wait() // errors are collected per-result, never aggregated here

	return results
}
