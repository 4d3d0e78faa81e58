// Package syncrepo implements the repository sync adapter of spec.md §4.7:
// clone/fetch/pull/commit/push of a proof repository, layered over go-git so
// the core never shells out to a system git binary. Concurrent local writes
// to the same working tree are serialized by a per-repository file lock
// (spec.md §5); concurrent pushes from different machines are made safe not
// by anything in this package but by pkg/store's salted proof filenames,
// which make two independent commits touch disjoint paths almost always.
package syncrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	_ "github.com/go-git/go-git/v5/plumbing/transport/file" // local-filesystem remotes: two proof repos on one machine

	"github.com/crev-dev/go-crev/pkg/logctx"
)

// Repo is one cloned proof repository's working tree.
type Repo struct {
	root   string
	git    *git.Repository
	lock   *repoLock
	retry  RetryPolicy
	author Author
}

// Author identifies the committer used by Commit.
type Author struct {
	Name  string
	Email string
}

func (a Author) signature(now time.Time) object.Signature {
	return object.Signature{Name: a.Name, Email: a.Email, When: now}
}

// Clone clones url into dest (a directory that must not already exist) and
// returns the opened Repo.
func Clone(ctx context.Context, url, dest string, auth transport.AuthMethod, author Author, retry RetryPolicy) (*Repo, error) {
	var repo *git.Repository
	err := withRetry(ctx, retry, "clone", func() error {
		var cloneErr error
		repo, cloneErr = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: url, Auth: auth})
		return cloneErr
	})
	if err != nil {
		return nil, err
	}
	return openWith(dest, repo, retry, author)
}

// Open opens an already-cloned repository at dest.
func Open(dest string, author Author, retry RetryPolicy) (*Repo, error) {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return nil, fmt.Errorf("syncrepo: open %s: %w", dest, err)
	}
	return openWith(dest, repo, retry, author)
}

func openWith(dest string, repo *git.Repository, retry RetryPolicy, author Author) (*Repo, error) {
	lock, err := openRepoLock(dest)
	if err != nil {
		return nil, err
	}
	return &Repo{root: dest, git: repo, lock: lock, retry: retry, author: author}, nil
}

// Root returns the repository's working-tree path.
func (r *Repo) Root() string { return r.root }

// Close releases the repository's file lock handle.
func (r *Repo) Close() error { return r.lock.Close() }

// Fetch updates refs from the remote without touching the working tree.
func (r *Repo) Fetch(ctx context.Context, auth transport.AuthMethod) error {
	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.lock.Unlock()

	log := logctx.FromContext(ctx)
	err := withRetry(ctx, r.retry, "fetch", func() error {
		return ignoreUpToDate(r.git.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Auth: auth}))
	})
	if err != nil {
		return err
	}
	log.Debugw("syncrepo: fetch complete", "root", r.root)
	return nil
}

// Pull fetches and fast-forwards the working tree to the remote's HEAD.
func (r *Repo) Pull(ctx context.Context, auth transport.AuthMethod) error {
	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.lock.Unlock()

	wt, err := r.git.Worktree()
	if err != nil {
		return fmt.Errorf("syncrepo: worktree: %w", err)
	}

	log := logctx.FromContext(ctx)
	err = withRetry(ctx, r.retry, "pull", func() error {
		return ignoreUpToDate(wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Auth: auth}))
	})
	if err != nil {
		return err
	}
	log.Debugw("syncrepo: pull complete", "root", r.root)
	return nil
}

// Commit stages every change under the working tree and commits it under
// the repository's configured author, returning the new commit hash.
// Callers are expected to have already written new proof files under
// salted, conflict-avoiding names (pkg/store.Commit/ProofPath) before
// calling this; Commit itself has no opinion on filenames.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if err := r.lock.Lock(); err != nil {
		return "", err
	}
	defer r.lock.Unlock()

	wt, err := r.git.Worktree()
	if err != nil {
		return "", fmt.Errorf("syncrepo: worktree: %w", err)
	}
	if _, err := wt.Add("."); err != nil {
		return "", fmt.Errorf("syncrepo: stage changes: %w", err)
	}

	sig := r.author.signature(time.Now())
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &sig})
	if err != nil {
		return "", fmt.Errorf("syncrepo: commit: %w", err)
	}

	logctx.FromContext(ctx).Infow("syncrepo: committed", "root", r.root, "hash", hash.String())
	return hash.String(), nil
}

// Push sends local commits on the current branch to the remote's matching
// branch. The push refspec is derived from HEAD explicitly rather than
// relying on the remote's configured fetch refspecs, which describe what to
// pull, not what to push.
func (r *Repo) Push(ctx context.Context, auth transport.AuthMethod) error {
	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.lock.Unlock()

	head, err := r.git.Head()
	if err != nil {
		return fmt.Errorf("syncrepo: resolve HEAD: %w", err)
	}
	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", head.Name(), head.Name()))

	log := logctx.FromContext(ctx)
	err = withRetry(ctx, r.retry, "push", func() error {
		return ignoreUpToDate(r.git.PushContext(ctx, &git.PushOptions{
			RemoteName: "origin",
			Auth:       auth,
			RefSpecs:   []config.RefSpec{refSpec},
		}))
	})
	if err != nil {
		return err
	}
	log.Debugw("syncrepo: push complete", "root", r.root)
	return nil
}

// ignoreUpToDate maps go-git's "nothing to do" sentinel to success: it is
// not a failure of the operation, just a no-op outcome.
func ignoreUpToDate(err error) error {
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	return err
}
