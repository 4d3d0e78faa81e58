package store

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/crev-dev/go-crev/pkg/codec"
)

// parallelDecode runs fn(i, envs[i]) across envs bounded by GOMAXPROCS,
// mirroring pkg/digest.DigestMany's fan-out shape for the other
// independent-per-item workload named in spec.md §5 ("signature verification
// during ingestion — parallelizable over envelopes"). fn must write only to
// index i of its caller's results slice, so no synchronization is needed
// here beyond errgroup.Wait.
func parallelDecode(envs []codec.Envelope, fn func(i int, env codec.Envelope)) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, env := range envs {
		i, env := i, env
		g.Go(func() error {
			fn(i, env)
			return nil
		})
	}
	_ = g.Wait()
}
