package bombe

import "github.com/pgtgrly/bombe-mcp/internal/config"

// Public aliases over internal/config's configuration surface.

type Config = config.Config
type Signing = config.Signing
type SigningAlgorithm = config.SigningAlgorithm
type RuntimeProfile = config.RuntimeProfile
type Option = config.Option

const (
	SigningNone       = config.SigningNone
	SigningHMACSHA256 = config.SigningHMACSHA256
	SigningEd25519    = config.SigningEd25519
)

const (
	ProfileDefault = config.ProfileDefault
	ProfileStrict  = config.ProfileStrict
)

// Workspace is the optional multi-root configuration at
// <repo>/.bombe/workspace.json.
type Workspace = config.Workspace

// LoadConfig builds a Config from an optional bombe.toml path, environment
// overrides, and functional options, in that precedence order.
func LoadConfig(configPath string, opts ...Option) (Config, error) {
	return config.Load(configPath, opts...)
}

// LoadWorkspace reads repoRoot's workspace.json, degrading to a
// single-root workspace when the file is absent.
func LoadWorkspace(repoRoot string) (Workspace, error) {
	return config.LoadWorkspace(repoRoot)
}

// WithRepoRoot overrides repo_root.
func WithRepoRoot(root string) Option { return config.WithRepoRoot(root) }

// WithDBPath overrides db_path.
func WithDBPath(path string) Option { return config.WithDBPath(path) }

// WithWorkers overrides the extractor pool size.
func WithWorkers(n int) Option { return config.WithWorkers(n) }

// WithRuntimeProfile overrides the runtime profile.
func WithRuntimeProfile(p RuntimeProfile) Option { return config.WithRuntimeProfile(p) }
