package main

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/spf13/cobra"

	"github.com/crev-dev/go-crev/pkg/syncrepo"
)

var (
	repoUsernameFlag string
	repoPasswordFlag string
	repoAuthorName   string
	repoAuthorEmail  string
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the local proof repository",
}

var repoCloneCmd = &cobra.Command{
	Use:   "clone <url>",
	Short: "Clone a proof repository into the configured data directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := syncrepo.Clone(app.ctx, args[0], app.proofsDir(), repoAuth(), repoAuthor(), syncrepo.DefaultRetryPolicy())
		if err != nil {
			return fmt.Errorf("clone: %w", err)
		}
		defer repo.Close()
		fmt.Println(repo.Root())
		return nil
	},
}

var repoFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the proof repository's remote refs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openProofRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Fetch(app.ctx, repoAuth()); err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		return nil
	},
}

var repoPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and fast-forward the proof repository's working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openProofRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Pull(app.ctx, repoAuth()); err != nil {
			return fmt.Errorf("pull: %w", err)
		}
		return nil
	},
}

var repoPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit and push locally drafted proofs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openProofRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		if _, err := repo.Commit(app.ctx, "crev: add proofs"); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := repo.Push(app.ctx, repoAuth()); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{repoCloneCmd, repoFetchCmd, repoPullCmd, repoPushCmd} {
		c.Flags().StringVar(&repoUsernameFlag, "username", "", "transport username, if the remote requires basic auth")
		c.Flags().StringVar(&repoPasswordFlag, "password", "", "transport password/token, if the remote requires basic auth")
	}
	repoCloneCmd.Flags().StringVar(&repoAuthorName, "author-name", "crev", "commit author name")
	repoCloneCmd.Flags().StringVar(&repoAuthorEmail, "author-email", "crev@localhost", "commit author email")
	repoPushCmd.Flags().StringVar(&repoAuthorName, "author-name", "crev", "commit author name")
	repoPushCmd.Flags().StringVar(&repoAuthorEmail, "author-email", "crev@localhost", "commit author email")

	repoCmd.AddCommand(repoCloneCmd, repoFetchCmd, repoPullCmd, repoPushCmd)
	rootCmd.AddCommand(repoCmd)
}

func openProofRepo() (*syncrepo.Repo, error) {
	repo, err := syncrepo.Open(app.proofsDir(), repoAuthor(), syncrepo.DefaultRetryPolicy())
	if err != nil {
		return nil, fmt.Errorf("open proof repository at %s: %w", app.proofsDir(), err)
	}
	return repo, nil
}

func repoAuthor() syncrepo.Author {
	return syncrepo.Author{Name: repoAuthorName, Email: repoAuthorEmail}
}

// repoAuth builds a basic-auth transport.AuthMethod when credentials were
// given on the command line, or nil for a remote that needs none (a local
// filesystem path, or one whose credentials are supplied by an SSH agent or
// git credential helper go-git reads on its own).
func repoAuth() transport.AuthMethod {
	if repoUsernameFlag == "" && repoPasswordFlag == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: repoUsernameFlag, Password: repoPasswordFlag}
}
