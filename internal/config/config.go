// Package config loads Bombe's configuration from a bombe.toml file,
// layers environment-variable overrides on top, and exposes the fixed
// guardrail constants every query engine clamps against. Precedence is
// file < environment < explicit functional options, applied in that
// order by Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Guardrail constants: hard caps on query inputs. Violations are clamped
// by the caller, never rejected.
const (
	MaxQueryLength            = 4096
	MaxSearchLimit            = 100
	MaxReferenceDepth         = 6
	MaxContextExpansionDepth  = 4
	MaxContextSeeds           = 32
	MaxContextTokenBudget     = 32000
	MinContextTokenBudget     = 256
	MaxGraphVisited           = 20000
	MaxGraphEdges             = 100000
	MaxBlastDepth             = 6
	MaxEntryPoints            = 32
)

// RuntimeProfile controls startup strictness around parser grammar
// availability.
type RuntimeProfile string

const (
	ProfileDefault RuntimeProfile = "default"
	ProfileStrict  RuntimeProfile = "strict"
)

// SigningAlgorithm is the closed set of artifact-signing algorithms.
type SigningAlgorithm string

const (
	SigningNone      SigningAlgorithm = ""
	SigningHMACSHA256 SigningAlgorithm = "hmac-sha256"
	SigningEd25519   SigningAlgorithm = "ed25519"
)

// Signing holds the hybrid plane's artifact-signing configuration.
type Signing struct {
	Algorithm   SigningAlgorithm `toml:"algorithm"`
	KeyID       string           `toml:"key_id"`
	KeyMaterial string           `toml:"key_material"`
}

// Config is Bombe's fully resolved runtime configuration.
type Config struct {
	RepoRoot                  string          `toml:"repo_root"`
	DBPath                    string          `toml:"db_path"`
	RuntimeProfile            RuntimeProfile  `toml:"runtime_profile"`
	Include                   []string        `toml:"include"`
	Exclude                   []string        `toml:"exclude"`
	Workers                   int             `toml:"workers"`
	SyncTimeoutMS             int             `toml:"sync_timeout_ms"`
	SensitiveExclusionEnabled bool            `toml:"sensitive_exclusion_enabled"`
	Signing                   Signing         `toml:"signing"`
	SemanticHintsPath         string          `toml:"semantic_hints_path"`
	RequiredLanguages         []string        `toml:"required_languages"`
}

// Default returns the baseline configuration before file/env/option
// layering.
func Default() Config {
	return Config{
		RuntimeProfile:            ProfileDefault,
		SensitiveExclusionEnabled: true,
		Workers:                   0, // 0 means max(1, NumCPU-1), resolved by the pipeline
	}
}

// Option mutates a Config during Load, applied after file and environment
// layers so explicit code always wins.
type Option func(*Config)

// WithRepoRoot overrides repo_root.
func WithRepoRoot(root string) Option { return func(c *Config) { c.RepoRoot = root } }

// WithDBPath overrides db_path.
func WithDBPath(path string) Option { return func(c *Config) { c.DBPath = path } }

// WithWorkers overrides the extractor pool size.
func WithWorkers(n int) Option { return func(c *Config) { c.Workers = n } }

// WithRuntimeProfile overrides the runtime profile.
func WithRuntimeProfile(p RuntimeProfile) Option { return func(c *Config) { c.RuntimeProfile = p } }

// Load builds a Config by starting from Default(), layering a bombe.toml
// file at configPath if present, then environment variables, then the
// supplied options, in that precedence order.
func Load(configPath string, opts ...Option) (Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", configPath, err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", configPath, err)
			}
		}
	}

	applyEnv(&cfg)

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.DBPath == "" && cfg.RepoRoot != "" {
		cfg.DBPath = filepath.Join(cfg.RepoRoot, ".bombe", "bombe.db")
	}
	return cfg, cfg.Validate()
}

// applyEnv layers BOMBE_*-prefixed environment variables over cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BOMBE_REPO_ROOT"); v != "" {
		cfg.RepoRoot = v
	}
	if v := os.Getenv("BOMBE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BOMBE_RUNTIME_PROFILE"); v != "" {
		cfg.RuntimeProfile = RuntimeProfile(v)
	}
	if v := os.Getenv("BOMBE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("BOMBE_INCLUDE"); v != "" {
		cfg.Include = strings.Split(v, ",")
	}
	if v := os.Getenv("BOMBE_EXCLUDE"); v != "" {
		cfg.Exclude = strings.Split(v, ",")
	}
	if v := os.Getenv("BOMBE_SENSITIVE_EXCLUSION_ENABLED"); v != "" {
		cfg.SensitiveExclusionEnabled = v != "false" && v != "0"
	}
	if v := os.Getenv("BOMBE_SIGNING_ALGORITHM"); v != "" {
		cfg.Signing.Algorithm = SigningAlgorithm(v)
	}
	if v := os.Getenv("BOMBE_SIGNING_KEY_ID"); v != "" {
		cfg.Signing.KeyID = v
	}
}

// supportedLanguages is the closed set of grammars always wired in; used by
// Validate's strict-profile check.
var supportedLanguages = map[string]bool{
	"python": true, "typescript": true, "java": true, "go": true,
}

// Validate checks invariants that must hold before New() proceeds,
// including the strict-profile grammar-availability precondition.
func (c Config) Validate() error {
	if c.RepoRoot == "" {
		return fmt.Errorf("repo_root is required")
	}
	if c.RuntimeProfile == ProfileStrict {
		for _, lang := range c.RequiredLanguages {
			if !supportedLanguages[lang] {
				return fmt.Errorf("runtime_profile=strict: required language %q has no compiled grammar", lang)
			}
		}
	}
	switch c.Signing.Algorithm {
	case SigningNone, SigningHMACSHA256, SigningEd25519:
	default:
		return fmt.Errorf("unsupported signing algorithm %q", c.Signing.Algorithm)
	}
	return nil
}
