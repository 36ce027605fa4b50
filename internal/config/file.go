package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the name looked up in the working and home directories.
const DefaultConfigFile = ".gravelscan"

// xdgConfigFile is the name looked up in the XDG config directory.
const xdgConfigFile = "config.yaml"

// FetchSection configures how pages are retrieved.
type FetchSection struct {
	// MaxPages overrides the number of result pages per query.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Concurrency overrides the number of parallel listing fetches.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Timeout overrides the total deadline of one attempt, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Proxy is a SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// Tor starts the embedded Tor daemon.
	Tor bool `yaml:"tor,omitempty"`

	// Render uses the headless browser backend.
	Render bool `yaml:"render,omitempty"`
}

// StorageSection configures where results go.
type StorageSection struct {
	OutputDir     string `yaml:"outputDir,omitempty"`
	DBDir         string `yaml:"dbDir,omitempty"`
	PostgresDSN   string `yaml:"postgresDSN,omitempty"`
	MongoURI      string `yaml:"mongoURI,omitempty"`
	MongoDatabase string `yaml:"mongoDatabase,omitempty"`

	// DisableHistory turns off the SQLite run history.
	DisableHistory bool `yaml:"disableHistory,omitempty"`
}

// EnrichmentSection configures the Ollama client.
type EnrichmentSection struct {
	URL     string        `yaml:"url,omitempty"`
	Model   string        `yaml:"model,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Addr string `yaml:"addr,omitempty"`
}

// File represents the structure of the .gravelscan configuration file.
type File struct {
	// Queries replaces the default search phrases when non-empty.
	Queries []string `yaml:"queries,omitempty"`

	Fetch      FetchSection      `yaml:"fetch,omitempty"`
	Storage    StorageSection    `yaml:"storage,omitempty"`
	Enrichment EnrichmentSection `yaml:"enrichment,omitempty"`
	Server     ServerSection     `yaml:"server,omitempty"`
}

// Apply overlays the values set in the file onto cfg.
// Zero values in the file leave cfg untouched.
func (cf *File) Apply(cfg *Config) {
	if cf == nil || cfg == nil {
		return
	}

	if len(cf.Queries) > 0 {
		cfg.Queries = append([]string(nil), cf.Queries...)
	}

	if cf.Fetch.MaxPages != 0 {
		cfg.MaxPages = cf.Fetch.MaxPages
	}
	if cf.Fetch.Concurrency != 0 {
		cfg.Concurrency = cf.Fetch.Concurrency
	}
	if cf.Fetch.Timeout != 0 {
		cfg.Timeout = cf.Fetch.Timeout
	}
	if cf.Fetch.Proxy != "" {
		cfg.ProxyAddress = cf.Fetch.Proxy
	}
	if cf.Fetch.Tor {
		cfg.UseTor = true
	}
	if cf.Fetch.Render {
		cfg.Render = true
	}

	if cf.Storage.OutputDir != "" {
		cfg.OutputDir = cf.Storage.OutputDir
	}
	if cf.Storage.DBDir != "" {
		cfg.DBDir = cf.Storage.DBDir
	}
	if cf.Storage.PostgresDSN != "" {
		cfg.PostgresDSN = cf.Storage.PostgresDSN
	}
	if cf.Storage.MongoURI != "" {
		cfg.MongoURI = cf.Storage.MongoURI
	}
	if cf.Storage.MongoDatabase != "" {
		cfg.MongoDatabase = cf.Storage.MongoDatabase
	}
	if cf.Storage.DisableHistory {
		cfg.SaveToDB = false
	}

	if cf.Enrichment.URL != "" {
		cfg.OllamaURL = cf.Enrichment.URL
	}
	if cf.Enrichment.Model != "" {
		cfg.OllamaModel = cf.Enrichment.Model
	}
	if cf.Enrichment.Timeout != 0 {
		cfg.OllamaTimeout = cf.Enrichment.Timeout
	}

	if cf.Server.Addr != "" {
		cfg.ServerAddr = cf.Server.Addr
	}
}

// LoadConfigFile reads and decodes the YAML file at path. A missing file
// yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user or FindConfigFile
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile returns explicit when that file exists. Without an explicit
// path it returns the first existing candidate of configCandidates, or "".
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if exists(explicit) {
			return explicit
		}
		return ""
	}

	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	for _, path := range configCandidates(cwd, home, XDGConfigDir()) {
		if exists(path) {
			return path
		}
	}
	return ""
}

// configCandidates lists the implicit config locations by priority:
// working directory, home directory, XDG config directory. Unknown
// directories are skipped.
func configCandidates(cwd, home, xdgDir string) []string {
	var paths []string
	if cwd != "" {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home != "" {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	if xdgDir != "" {
		paths = append(paths, filepath.Join(xdgDir, xdgConfigFile))
	}
	return paths
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
