// Package config loads and validates the relkit YAML configuration.
//
// Configuration values may reference environment variables with $VAR or
// ${VAR} syntax; variables are expanded after optional .env loading and
// before YAML decoding.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	rkerrors "github.com/mflab/relkit/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Docs    DocsConfig    `yaml:"docs"`
	PDF     PDFConfig     `yaml:"pdf"`
	Dist    DistConfig    `yaml:"dist"`
	Publish PublishConfig `yaml:"publish"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// Command is an external command line: binary followed by arguments.
type Command []string

// Bin returns the binary name, or "" for an empty command.
func (c Command) Bin() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Args returns the arguments following the binary.
func (c Command) Args() []string {
	if len(c) <= 1 {
		return nil
	}
	return c[1:]
}

// ProjectConfig identifies the project being released
type ProjectConfig struct {
	Name      string `yaml:"name"`
	Changelog string `yaml:"changelog,omitempty"`
}

// DocsConfig configures the HTML documentation task
type DocsConfig struct {
	Source      string  `yaml:"source"`
	OutputDir   string  `yaml:"output_dir"`
	Builder     Command `yaml:"builder"` // source and output dirs are appended
	VerifyLinks bool    `yaml:"verify_links,omitempty"`
	Notes       bool    `yaml:"notes,omitempty"`
}

// PDFConfig configures the PDF manual task
type PDFConfig struct {
	BuildDir string  `yaml:"build_dir"`
	Build    Command `yaml:"build"`
	Passes   int     `yaml:"passes,omitempty"` // repeated runs to settle cross-references
	Artifact string  `yaml:"artifact"`         // file produced inside the build tree
	Final    string  `yaml:"final"`            // fixed destination for the published copy
}

// DistConfig configures the source distribution task
type DistConfig struct {
	OutputDir string  `yaml:"output_dir"`
	Builder   Command `yaml:"builder"`
}

// PublishConfig configures the package upload task
type PublishConfig struct {
	Tool       Command `yaml:"tool"`
	Repository string  `yaml:"repository,omitempty"` // destination repository name, e.g. testpypi or pypi
	Glob       string  `yaml:"glob,omitempty"`       // files handed to the upload tool
}

// HistoryConfig configures the run-history store
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig configures Prometheus exposition (watch mode only)
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// NotifyConfig configures NATS run-event publication
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig configures watch-mode rebuilds
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"` // e.g. "2s"
	Schedule string `yaml:"schedule,omitempty"` // optional full-rebuild interval, e.g. "1h"
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, rkerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryConfig, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryConfig, "failed to unmarshal config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadEnvFiles loads environment variables from .env/.env.local files.
// Existing process environment variables are not overwritten (godotenv semantics).
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return rkerrors.New(rkerrors.CategoryConfig, rkerrors.SeverityFatal,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "failed to write config file")
	}

	return nil
}

const exampleConfig = `# relkit release task configuration
project:
  name: MFLib
  changelog: CHANGELOG.md

docs:
  source: docs/source
  output_dir: docs/build/html
  # source and output directories are appended to the builder command
  builder: [sphinx-build, -b, html]
  verify_links: true
  notes: true

pdf:
  build_dir: docs/build/latex
  build: [make, -C, docs, latexpdf]
  passes: 2
  artifact: docs/build/latex/mflib.pdf
  final: MFLib.pdf

dist:
  output_dir: dist
  builder: [python3, -m, build, --sdist]

publish:
  tool: [python3, -m, twine, upload]
  # test repository by default; pass --repository pypi for production
  repository: testpypi
  glob: dist/*

logging:
  level: info
  format: text

history:
  enabled: true
  path: .relkit/history.db

metrics:
  enabled: false
  listen: ":9464"

notify:
  enabled: false
  url: nats://127.0.0.1:4222
  subject: relkit.runs

watch:
  debounce: 2s
`
