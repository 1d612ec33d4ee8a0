// Package config loads and validates the optional .repack YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for runner and keystore configuration.
const (
	DefaultMaxOutput = 1 << 20 // 1 MB

	// DefaultKeystoreAlias matches the Android debug keystore convention.
	DefaultKeystoreAlias = "androiddebugkey"

	// DefaultPasswordEnv is the environment variable consulted for the
	// keystore password when none is configured. The password is never
	// accepted on the command line and never placed in a tool's argv.
	DefaultPasswordEnv = "REPACK_KS_PASS"
)

// Config holds the parsed .repack configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int            `yaml:"version"`
	RawTimeout   string         `yaml:"timeout"`    // e.g. "5m", "30s"; empty means no timeout
	RawMaxOutput int            `yaml:"max_output"` // bytes
	Tools        ToolsConfig    `yaml:"tools"`
	Keystore     KeystoreConfig `yaml:"keystore"`
	IncludePaths bool           `yaml:"include_paths"` // include file paths in relayed messages
	Verbose      bool           `yaml:"verbose"`       // pass tool verbose flags by default
}

// ToolsConfig holds explicit path overrides for the external tools.
// When a field is empty the bare conventional name is used and resolution
// is deferred to the operating system's executable search.
type ToolsConfig struct {
	Apktool   string `yaml:"apktool"`
	Apksigner string `yaml:"apksigner"`
	Zipalign  string `yaml:"zipalign"`
}

// KeystoreConfig holds signing defaults. When Path is set, build runs
// chain sign and align after a successful apktool build.
type KeystoreConfig struct {
	Path        string `yaml:"path"`
	Alias       string `yaml:"alias"`
	PasswordEnv string `yaml:"password_env"` // env var holding the keystore password
}

// Timeout returns the configured timeout, or 0 when none is configured.
// No timeout is imposed by default: the right limit depends on the tool
// and the size of the APK, so the caller opts in.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// KeystoreAlias returns the configured key alias, falling back to the
// Android debug keystore alias.
func (c *Config) KeystoreAlias() string {
	if c.Keystore.Alias != "" {
		return c.Keystore.Alias
	}
	return DefaultKeystoreAlias
}

// PasswordEnv returns the name of the environment variable holding the
// keystore password.
func (c *Config) PasswordEnv() string {
	if c.Keystore.PasswordEnv != "" {
		return c.Keystore.PasswordEnv
	}
	return DefaultPasswordEnv
}

// KeystorePath resolves the configured keystore path relative to workspace.
// Returns "" when no keystore is configured.
func (c *Config) KeystorePath(workspace string) string {
	p := c.Keystore.Path
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(workspace, p)
	}
	return p
}

// LoadResult holds the parsed config and the directory it was loaded from.
type LoadResult struct {
	Config *Config
	Dir    string
}

// Load reads the .repack file from the workspace directory.
// If no .repack file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	path := filepath.Join(workspace, ".repack")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, Dir: workspace}, nil
		}
		return nil, fmt.Errorf("reading .repack: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing .repack: %w", err)
	}
	return &LoadResult{Config: cfg, Dir: workspace}, nil
}
