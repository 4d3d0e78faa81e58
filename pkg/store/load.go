package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crev-dev/go-crev/pkg/codec"
	"github.com/crev-dev/go-crev/pkg/logctx"
)

// LoadDir ingests every ".crev" file found under root, recursively, tagging
// each envelope's source with root. It is the on-disk counterpart of
// pkg/syncrepo's clone/fetch/pull, used both for a freshly synced remote and
// for the local working repository at startup.
func (s *Store) LoadDir(ctx context.Context, root string) (IngestReport, error) {
	log := logctx.FromContext(ctx)
	var all []codec.Envelope

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".crev" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("store: load %s: %w", path, err)
		}
		envs, err := codec.Unwrap(string(data))
		all = append(all, envs...)
		if err != nil {
			// Partial parses still contribute the envelopes decoded before
			// the failure; the failure itself is logged rather than
			// aborting the whole directory walk.
			log.Warnw("truncated proof file", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return IngestReport{Source: root}, err
	}

	return s.Ingest(ctx, all, root), nil
}
