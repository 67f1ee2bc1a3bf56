package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/raskyld/rower"
	"gopkg.in/yaml.v3"
)

// Config is the content of the config file.
type Config struct {
	// Home is the address `rower get` opens without argument.
	Home string `yaml:"home"`

	GopherPlus  bool          `yaml:"gopher_plus"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	ChunkSize   int           `yaml:"chunk_size"`
	DownloadDir string        `yaml:"download_dir"`

	DNSServer string `yaml:"dns_server"`
	DNSCache  string `yaml:"dns_cache"`

	PrefetchConcurrency int `yaml:"prefetch_concurrency"`
	PayloadCacheSize    int `yaml:"payload_cache_size"`

	Verbose bool `yaml:"verbose"`
}

// DefaultConfigPath returns $HOME/.config/rower/config.yaml, or an empty
// string when the config directory is unknown.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rower", "config.yaml")
}

// LoadConfig reads the YAML file at path. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("config: %w", os.ErrNotExist)
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ClientOptions translates the config into client options.
func (cfg Config) ClientOptions() []rower.Option {
	opts := []rower.Option{
		rower.WithGopherPlus(cfg.GopherPlus),
		rower.WithDialTimeout(cfg.DialTimeout),
		rower.WithReadTimeout(cfg.ReadTimeout),
		rower.WithChunkSize(cfg.ChunkSize),
		rower.WithDownloadDir(cfg.DownloadDir),
	}
	if cfg.DNSServer != "" {
		opts = append(opts, rower.WithDNSServer(cfg.DNSServer))
	}
	return opts
}
