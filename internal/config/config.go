// Package config handles per-garden tendr configuration (config.toml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aidanlsb/tendr/internal/atomicfile"
	"github.com/aidanlsb/tendr/internal/semtree"
)

// FileName is the config file looked up at the garden root.
const FileName = "config.toml"

// Config is the garden configuration.
type Config struct {
	Garden GardenConfig `toml:"garden"`
	ID     IDConfig     `toml:"id"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
}

// GardenConfig locates the hierarchy and rule files.
type GardenConfig struct {
	// Root is the id of the root index document.
	Root string `toml:"root"`
	// Doctypes is the doctype rule file, relative to the garden root.
	Doctypes string `toml:"doctypes"`
	// Ignore holds doublestar patterns excluded from the corpus.
	Ignore []string `toml:"ignore"`
	// IndexGlob selects index documents by path. When empty, documents of
	// doctype "index" are used.
	IndexGlob string `toml:"index_glob"`
}

// IDConfig shapes generated ids and the :id prefix placeholder.
type IDConfig struct {
	Alphabet string `toml:"alphabet"`
	Size     int    `toml:"size"`
}

// CacheConfig controls the optional scan cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Path is relative to the garden root.
	Path string `toml:"path"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when config.toml is absent.
func Default() *Config {
	return &Config{
		Garden: GardenConfig{
			Root:     semtree.DefaultRoot,
			Doctypes: "t.doc.toml",
		},
		ID: IDConfig{
			Alphabet: "0123456789abcdefghijklmnopqrstuvwxyz",
			Size:     8,
		},
		Cache: CacheConfig{
			Path: ".tendr/cache.db",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the config for the garden at root. explicitPath overrides the
// default location. A missing default file yields Default(); a missing
// explicit file is an error.
func Load(root, explicitPath string) (*Config, error) {
	path := explicitPath
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(root, FileName)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the config at path. Keys missing from the
// file keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Garden.Validate(); err != nil {
		return fmt.Errorf("garden: %w", err)
	}
	if err := c.ID.Validate(); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Validate validates the garden section.
func (c *GardenConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Doctypes, validation.Required),
	)
}

// Validate validates the id section.
func (c *IDConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Alphabet, validation.Required),
		validation.Field(&c.Size, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// Validate validates the cache section.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// Validate validates the log section. The level is normalised to lower case.
func (c *LogConfig) Validate() error {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// SlogLevel converts the configured level; unknown or empty values mean warn.
func (c *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// DoctypePath returns the absolute path of the doctype rule file.
func (c *Config) DoctypePath(root string) string {
	return resolve(root, c.Garden.Doctypes)
}

// CachePath returns the absolute path of the scan cache database.
func (c *Config) CachePath(root string) string {
	return resolve(root, c.Cache.Path)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// FindRoot walks up from start to the nearest directory holding a
// config.toml. When none is found, start itself is the garden root.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

const defaultFile = `# tendr garden configuration

[garden]
# id of the root index document
root = "i.bonsai"
# doctype rule file (.toml or .yaml), relative to the garden root
doctypes = "t.doc.toml"
# doublestar patterns excluded from the garden
# ignore = ["templates/**"]
# glob selecting index documents; defaults to documents of doctype "index"
# index_glob = "index/**/*.md"

[id]
alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
size = 8

[cache]
# memoise reference scans in a local sqlite database
enabled = false
path = ".tendr/cache.db"

[log]
# debug, info, warn or error
level = "warn"
`

const defaultDoctypes = `[index]
prefix = "i."
`

// CreateDefault writes a default config.toml and doctype file into root,
// leaving existing files alone. It returns the paths it created.
func CreateDefault(root string) ([]string, error) {
	var created []string
	files := []struct{ path, content string }{
		{filepath.Join(root, FileName), defaultFile},
		{filepath.Join(root, "t.doc.toml"), defaultDoctypes},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return created, fmt.Errorf("failed to create directory: %w", err)
		}
		if err := atomicfile.WriteFile(f.path, []byte(f.content)); err != nil {
			return created, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		created = append(created, f.path)
	}
	return created, nil
}
