// Package config provides configuration management for pkgsmith.
// It handles loading, validating and saving the YAML settings file, parsing
// the download agent and VCS client tables, and resolving the directory
// layout a recipe is built in.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/platform"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Compiler and packaging environment
	Build Build `yaml:"build"`

	// Source retrieval
	Downloads Downloads `yaml:"downloads"`
}

// Settings represents general application settings.
type Settings struct {
	// Directory settings. Relative paths resolve against the recipe
	// directory; empty means the recipe directory itself.
	SrcDest  string `yaml:"src_dest,omitempty"`
	LogDest  string `yaml:"log_dest,omitempty"`
	BuildDir string `yaml:"build_dir,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// Build holds the values injected into build phases.
type Build struct {
	Arch           string `yaml:"arch"`
	Chost          string `yaml:"chost,omitempty"`
	CFlags         string `yaml:"cflags,omitempty"`
	CPPFlags       string `yaml:"cppflags,omitempty"`
	CXXFlags       string `yaml:"cxxflags,omitempty"`
	LDFlags        string `yaml:"ldflags,omitempty"`
	LTOFlags       string `yaml:"ltoflags,omitempty"`
	MakeFlags      string `yaml:"makeflags,omitempty"`
	RustFlags      string `yaml:"rustflags,omitempty"`
	DebugCFlags    string `yaml:"debug_cflags,omitempty"`
	DebugCXXFlags  string `yaml:"debug_cxxflags,omitempty"`
	DebugRustFlags string `yaml:"debug_rustflags,omitempty"`
	DistccHosts    string `yaml:"distcc_hosts,omitempty"`
	DbgSrcDir      string `yaml:"dbg_src_dir,omitempty"`
	// LibDir is searched for the ccache and distcc wrapper directories.
	LibDir string `yaml:"lib_dir,omitempty"`

	// BuildEnv toggles environment features (ccache, distcc).
	BuildEnv recipe.Options `yaml:"build_env,omitempty"`
	// Options are recipe option defaults (buildflags, makeflags, lto, debug).
	Options recipe.Options `yaml:"options,omitempty"`

	FakerootLibDirs []string `yaml:"fakeroot_lib_dirs,omitempty"`
	SourceDateEpoch int64    `yaml:"source_date_epoch,omitempty"`
}

// Downloads configures how sources are fetched.
type Downloads struct {
	MaxConcurrent int `yaml:"max_downloads"`
	// Agents are "proto::command args" templates. %u is replaced by the
	// source URL and %o by the output file.
	Agents []string `yaml:"download_agents"`
	// VCSClients are "proto::package" pairs.
	VCSClients []string `yaml:"vcs_clients"`
}

// Default configuration values.
const (
	// DefaultMaxConcurrent is the default number of simultaneous transfers.
	DefaultMaxConcurrent = 8

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultAgents are the agent templates used when none are configured.
var DefaultAgents = []string{
	"file::/usr/bin/curl -qgC - -o %o %u",
	"ftp::/usr/bin/curl -qgfC - --ftp-pasv --retry 3 --retry-delay 3 -o %o %u",
	"http::/usr/bin/curl -qgb '' -fLC - --retry 3 --retry-delay 3 -o %o %u",
	"https::/usr/bin/curl -qgb '' -fLC - --retry 3 --retry-delay 3 -o %o %u",
	"rsync::/usr/bin/rsync --no-motd -z %u %o",
	"scp::/usr/bin/scp -C %u %o",
}

// DefaultVCSClients are the VCS clients used when none are configured.
var DefaultVCSClients = []string{
	"bzr::breezy",
	"fossil::fossil",
	"git::git",
	"hg::mercurial",
	"svn::subversion",
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			OutputFormat: "text",
			LogLevel:     "info",
		},
		Build: Build{
			Arch:      platform.CurrentArch(),
			LTOFlags:  "-flto=auto",
			DbgSrcDir: "/usr/src/debug",
			LibDir:    "/usr/lib",
			BuildEnv:  recipe.Options{"!distcc", "!ccache"},
			Options:   recipe.Options{"buildflags", "makeflags", "!lto", "!debug"},
		},
		Downloads: Downloads{
			MaxConcurrent: DefaultMaxConcurrent,
			Agents:        append([]string(nil), DefaultAgents...),
			VCSClients:    append([]string(nil), DefaultVCSClients...),
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileChmod, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	if c.Build.Arch == "" {
		return errors.Wrap(errors.ErrConfigValidation, "arch cannot be empty")
	}
	if c.Build.Arch == platform.AnyArch {
		return errors.Wrapf(errors.ErrConfigValidation, "arch must name a machine architecture, not %q", platform.AnyArch)
	}
	if c.Downloads.MaxConcurrent < 1 {
		return errors.Wrapf(errors.ErrConfigValidation, "max_downloads must be at least 1, got %d", c.Downloads.MaxConcurrent)
	}
	if _, err := c.DownloadAgents(); err != nil {
		return err
	}
	if _, err := c.VCSClients(); err != nil {
		return err
	}
	return nil
}

func validateSettings(s Settings) error {
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid output format %q, must be one of: text, json", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q, must be one of: debug, info, warn, error", s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	return fsutil.GetConfigPath()
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Build.Arch == "" {
		c.Build.Arch = defaults.Build.Arch
	}
	if c.Build.DbgSrcDir == "" {
		c.Build.DbgSrcDir = defaults.Build.DbgSrcDir
	}
	if c.Build.LibDir == "" {
		c.Build.LibDir = defaults.Build.LibDir
	}
	if c.Build.LTOFlags == "" {
		c.Build.LTOFlags = defaults.Build.LTOFlags
	}
	if c.Downloads.MaxConcurrent == 0 {
		c.Downloads.MaxConcurrent = defaults.Downloads.MaxConcurrent
	}
	if c.Downloads.Agents == nil {
		c.Downloads.Agents = defaults.Downloads.Agents
	}
	if c.Downloads.VCSClients == nil {
		c.Downloads.VCSClients = defaults.Downloads.VCSClients
	}
}
