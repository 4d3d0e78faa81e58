package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crev-dev/go-crev/pkg/config"
	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/store"
)

func (a *appContext) idsDir() string {
	return filepath.Join(a.cfg.DataDir, "ids")
}

func (a *appContext) proofsDir() string {
	return filepath.Join(a.cfg.DataDir, "proofs")
}

func lockedIdPath(idsDir string, id identity.Id) string {
	return filepath.Join(idsDir, string(id)+".yaml")
}

func (a *appContext) saveConfig() error {
	return config.Save(a.cfgPath, a.cfg)
}

// passphrase resolves the active identity's passphrase by running the
// configured PassphraseCmd and reading its trimmed stdout. Interactive
// prompting is out of scope (spec.md §9's Non-goals): a caller that wants
// one runs a small wrapper script and points passphrase-cmd at it.
func (a *appContext) passphrase() (string, error) {
	if a.cfg.PassphraseCmd == "" {
		return "", fmt.Errorf("no passphrase source configured: set passphrase-cmd in %s or CREV_PASSPHRASE_CMD", a.cfgPath)
	}
	cmd := exec.Command("sh", "-c", a.cfg.PassphraseCmd)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run passphrase-cmd: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func (a *appContext) loadLockedId(id identity.Id) (*identity.LockedId, error) {
	data, err := os.ReadFile(lockedIdPath(a.idsDir(), id))
	if err != nil {
		return nil, fmt.Errorf("read identity %s: %w", id, err)
	}
	var locked identity.LockedId
	if err := yaml.Unmarshal(data, &locked); err != nil {
		return nil, fmt.Errorf("parse identity %s: %w", id, err)
	}
	return &locked, nil
}

func (a *appContext) saveLockedId(locked *identity.LockedId) error {
	if err := os.MkdirAll(a.idsDir(), 0o755); err != nil {
		return fmt.Errorf("create ids dir: %w", err)
	}
	data, err := yaml.Marshal(locked)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	path := lockedIdPath(a.idsDir(), locked.PublicId)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write identity %s: %w", path, err)
	}
	return nil
}

// unlockActive loads and unlocks the configured active identity, returning
// its id and the raw Ed25519 seed ready for identity.Sign.
func (a *appContext) unlockActive() (identity.Id, []byte, error) {
	if a.cfg.ActiveId == "" {
		return "", nil, fmt.Errorf("no active identity: run 'crev id new' or 'crev id switch'")
	}
	id := identity.Id(a.cfg.ActiveId)
	locked, err := a.loadLockedId(id)
	if err != nil {
		return "", nil, err
	}
	pass, err := a.passphrase()
	if err != nil {
		return "", nil, err
	}
	seed, err := locked.Unlock(pass)
	if err != nil {
		return "", nil, fmt.Errorf("unlock identity %s: %w", id, err)
	}
	return id, seed, nil
}

// openStore loads every proof under the local working proof repository.
func (a *appContext) openStore() (*store.Store, error) {
	s := store.New()
	if _, err := os.Stat(a.proofsDir()); os.IsNotExist(err) {
		return s, nil
	}
	if _, err := s.LoadDir(a.ctx, a.proofsDir()); err != nil {
		return nil, fmt.Errorf("load proof repository: %w", err)
	}
	return s, nil
}

// hostSalt returns the persisted per-host filename salt, generating and
// saving one on first use.
func (a *appContext) hostSalt() (string, error) {
	if a.cfg.HostSalt != "" {
		return a.cfg.HostSalt, nil
	}
	a.cfg.HostSalt = store.NewHostSalt()
	if err := a.saveConfig(); err != nil {
		return "", fmt.Errorf("persist host salt: %w", err)
	}
	return a.cfg.HostSalt, nil
}
