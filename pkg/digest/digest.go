// Package digest computes the recursive, content-addressed digest of a
// filesystem tree described in spec.md §3/§4.3: Blake2b-256 over files,
// symlink targets, and sorted directory entries, with a caller-supplied
// filter to prune ignored subtrees.
package digest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// EntryKind identifies what kind of filesystem entry a Filter is being asked
// about.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
	KindSymlink
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

const (
	tagFile    byte = 'F' // 0x46
	tagSymlink byte = 'S' // 0x53
	tagDir     byte = 'D' // 0x44
)

// Filter is consulted for every entry, with a path relative to the digest
// root, before the entry is hashed or descended into. Returning false
// excludes the entry (and, for directories, its entire subtree) from the
// digest entirely.
type Filter func(relPath string, kind EntryKind) bool

// IncludeAll is a Filter that excludes nothing.
func IncludeAll(string, EntryKind) bool { return true }

// IoError wraps a filesystem failure encountered while digesting path. Per
// spec.md §4.3/§7 this is a soft, per-entry failure: callers (the
// verification engine) treat it as non-match rather than halting unrelated
// work.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("digest: %s: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// Digest computes the recursive digest of the directory tree rooted at root.
// root itself is treated as a directory (the package-version source tree);
// ctx is checked between sibling entries so a cancellation request is
// honored without interrupting an in-flight file's hash.
func Digest(ctx context.Context, root string, filter Filter) ([]byte, error) {
	if filter == nil {
		filter = IncludeAll
	}
	return digestDir(ctx, root, "", filter)
}

func digestDir(ctx context.Context, absPath, relPath string, filter Filter) ([]byte, error) {
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, &IoError{Path: absPath, Err: err}
	}

	names := make([]string, 0, len(entries))
	byName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	h.Write([]byte{tagDir})

	for _, name := range names {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry := byName[name]
		childRel := name
		if relPath != "" {
			childRel = relPath + "/" + name
		}

		kind, err := entryKind(entry)
		if err != nil {
			return nil, &IoError{Path: filepath.Join(absPath, name), Err: err}
		}
		if !filter(childRel, kind) {
			continue
		}

		childDigest, err := digestEntry(ctx, filepath.Join(absPath, name), childRel, kind, filter)
		if err != nil {
			return nil, err
		}

		nameHash := blake2b.Sum256([]byte(name))
		h.Write(nameHash[:])
		h.Write(childDigest)
	}

	return h.Sum(nil), nil
}

func digestEntry(ctx context.Context, absPath, relPath string, kind EntryKind, filter Filter) ([]byte, error) {
	switch kind {
	case KindDir:
		return digestDir(ctx, absPath, relPath, filter)
	case KindSymlink:
		return digestSymlink(absPath)
	default:
		return digestFile(absPath)
	}
}

func digestFile(absPath string) ([]byte, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, &IoError{Path: absPath, Err: err}
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	h.Write([]byte{tagFile})
	if _, err := io.Copy(h, f); err != nil {
		return nil, &IoError{Path: absPath, Err: err}
	}
	return h.Sum(nil), nil
}

func digestSymlink(absPath string) ([]byte, error) {
	target, err := os.Readlink(absPath)
	if err != nil {
		return nil, &IoError{Path: absPath, Err: err}
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	h.Write([]byte{tagSymlink})
	h.Write([]byte(target))
	return h.Sum(nil), nil
}

func entryKind(e os.DirEntry) (EntryKind, error) {
	info, err := e.Info()
	if err != nil {
		return 0, err
	}
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return KindSymlink, nil
	case mode.IsDir():
		return KindDir, nil
	default:
		return KindFile, nil
	}
}
