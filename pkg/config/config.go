// Package config loads go-crev's ambient configuration: the active
// identity, data directory, default verification thresholds, the
// known-owners pass-through list, the trusted-root identity, and proof
// repository remotes (spec.md §6's "Config directory" / §4.6's
// caller-supplied thresholds). Loading layers a YAML file under a
// `CREV_`-prefixed environment override, the way the teacher's
// `cmd/localk8s`/`cmd/webhook` commands wire viper.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Thresholds mirrors pkg/verify.Thresholds in plain string form, the shape
// a YAML file or environment variable can express without importing
// pkg/proof's Level type.
type Thresholds struct {
	TrustLevel    string `mapstructure:"trust-level" yaml:"trust-level"`
	Thoroughness  string `mapstructure:"thoroughness" yaml:"thoroughness"`
	Understanding string `mapstructure:"understanding" yaml:"understanding"`
	Redundancy    int    `mapstructure:"redundancy" yaml:"redundancy"`
}

// Remote is one proof repository pkg/syncrepo can clone/fetch/push.
type Remote struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

// Config is the fully-resolved configuration for one crev invocation. The
// yaml tags match the mapstructure tags exactly, so a Config Save produces a
// file Load reads back byte-for-byte equivalent.
type Config struct {
	ActiveId      string     `mapstructure:"active-id" yaml:"active-id,omitempty"`
	DataDir       string     `mapstructure:"data-dir" yaml:"data-dir,omitempty"`
	TrustedRoot   string     `mapstructure:"trusted-root" yaml:"trusted-root,omitempty"`
	KnownOwners   []string   `mapstructure:"known-owners" yaml:"known-owners,omitempty"`
	Thresholds    Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Remotes       []Remote   `mapstructure:"remotes" yaml:"remotes,omitempty"`
	PassphraseCmd string     `mapstructure:"passphrase-cmd" yaml:"passphrase-cmd,omitempty"`

	// HostSalt is this machine's pkg/store.ProofPath filename salt,
	// generated once on first commit and persisted so repeated commits from
	// this host append to the same bucketed file instead of each minting a
	// new one (spec.md §4.4 invariant (i) only requires salts to differ
	// *across* hosts).
	HostSalt string `mapstructure:"host-salt" yaml:"host-salt,omitempty"`
}

// DefaultThresholds matches spec.md's suggested reasonable defaults: a
// medium trust bar and a single non-redundant passing review.
func DefaultThresholds() Thresholds {
	return Thresholds{TrustLevel: "medium", Thoroughness: "low", Understanding: "low", Redundancy: 1}
}

// Default returns an empty configuration with DataDir resolved to
// ~/.config/crev and default thresholds applied, the baseline Load starts
// from before layering a file and the environment on top.
func Default() (Config, error) {
	dataDir, err := defaultDataDir()
	if err != nil {
		return Config{}, err
	}
	return Config{DataDir: dataDir, Thresholds: DefaultThresholds()}, nil
}

func defaultDataDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return home + "/.config/crev", nil
}

// Load reads configuration from path (a YAML file; may not exist, in which
// case defaults plus environment overrides still apply) and from
// `CREV_`-prefixed environment variables, e.g. CREV_DATA_DIR overrides
// `data-dir`, CREV_THRESHOLDS_REDUNDANCY overrides `thresholds.redundancy`.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CREV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return out, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("data-dir", cfg.DataDir)
	v.SetDefault("thresholds.trust-level", cfg.Thresholds.TrustLevel)
	v.SetDefault("thresholds.thoroughness", cfg.Thresholds.Thoroughness)
	v.SetDefault("thresholds.understanding", cfg.Thresholds.Understanding)
	v.SetDefault("thresholds.redundancy", cfg.Thresholds.Redundancy)
}

// Save writes cfg as YAML to path, creating or truncating it. cmd/crev calls
// this after `id new`/`id switch` change the active identity, so the choice
// persists across invocations the same way the rest of Config does.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// bindEnv registers every field viper's Unmarshal will populate against its
// CREV_-prefixed environment variable explicitly. AutomaticEnv alone only
// intercepts Get/IsSet lookups by key, not the AllSettings walk Unmarshal
// performs, so a key with no explicit binding would silently ignore its
// environment override.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"active-id",
		"data-dir",
		"trusted-root",
		"known-owners",
		"passphrase-cmd",
		"host-salt",
		"thresholds.trust-level",
		"thresholds.thoroughness",
		"thresholds.understanding",
		"thresholds.redundancy",
	} {
		_ = v.BindEnv(key)
	}
}
