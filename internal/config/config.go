// Package config provides the server configuration and its file loaders.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server reads at startup.
// It is never modified after the server starts.
type Config struct {
	// Listen is the TCP address to bind (e.g., "127.0.0.1:7878").
	Listen string `toml:"listen" yaml:"listen"`
	// Root is the directory exposed to clients. Empty means the working directory.
	Root string `toml:"root" yaml:"root"`
	// Workers bounds the number of connections handled at once.
	// 1 handles connections strictly one at a time.
	Workers int `toml:"workers" yaml:"workers"`
	// ReadBufferSize is the number of request bytes inspected.
	// A request line that does not fit is rejected.
	ReadBufferSize int `toml:"read_buffer_size" yaml:"read_buffer_size"`
	// MaxFileSize is the largest file served. Files are read into memory whole.
	MaxFileSize int64 `toml:"max_file_size" yaml:"max_file_size"`
	// ReadTimeout and WriteTimeout bound a single connection. Zero disables them.
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	// UnicodeFallback retries lookups in the other Unicode normalization form.
	UnicodeFallback bool `toml:"unicode_fallback" yaml:"unicode_fallback"`
	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

// DefaultListen is the address used when none is configured.
const DefaultListen = "127.0.0.1:7878"

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:          DefaultListen,
		Workers:         8,
		ReadBufferSize:  512,
		MaxFileSize:     64 << 20,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		UnicodeFallback: true,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load reads a TOML or YAML file, chosen by extension, on top of Default().
func Load(path string) (Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	return cfg, nil
}

// Validate reports the first setting the server cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ReadBufferSize < 16 {
		return fmt.Errorf("read_buffer_size must be at least 16, got %d", c.ReadBufferSize)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative, got %d", c.MaxFileSize)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}
