// Package config loads drilldown's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/drilldown/config.toml (falling back to
// ~/.config/drilldown/config.toml). A missing file yields [Default].
//
//	[store]
//	backend = "sqlite"
//	sqlite_path = "~/.local/share/drilldown/store.db"
//
//	[server]
//	addr = ":8080"
//	cors_origins = ["http://localhost:5173"]
//
//	[groups.db]
//	title = "Databases"
//	color = "#22c55e"
//	radius = 30
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/layout"
	"github.com/matzehuels/drilldown/pkg/storage"
)

// Config is the whole configuration file.
type Config struct {
	Store  Store                  `toml:"store"`
	Server Server                 `toml:"server"`
	Layout Layout                 `toml:"layout"`
	Groups map[string]GroupConfig `toml:"groups"`
	Log    Log                    `toml:"log"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`

	// Undecoded lists keys present in the file that drilldown does not know.
	Undecoded []string `toml:"-"`
}

// Store selects the storage backend for `save`, `load` and `store`.
type Store struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	Prefix          string `toml:"prefix"`
	RedisAddr       string `toml:"redis_addr"`
	RedisDB         int    `toml:"redis_db"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	SQLitePath      string `toml:"sqlite_path"`
}

// Server configures `drilldown serve`.
type Server struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
	Watch       bool     `toml:"watch"`
}

// Layout tunes the force layout.
type Layout struct {
	Width        float64 `toml:"width"`
	Height       float64 `toml:"height"`
	Iterations   int     `toml:"iterations"`
	Repel        float64 `toml:"repel"`
	Attract      float64 `toml:"attract"`
	Damping      float64 `toml:"damping"`
	LinkDistance float64 `toml:"link_distance"`
}

// GroupConfig seeds a group in new documents.
type GroupConfig struct {
	Title       string  `toml:"title"`
	Color       string  `toml:"color"`
	Radius      float64 `toml:"radius"`
	Description string  `toml:"description"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:  Store{Backend: string(storage.KindFile), Prefix: storage.DefaultPrefix},
		Server: Server{Addr: "127.0.0.1:8080"},
		Log:    Log{Level: "info"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Dir returns drilldown's config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "drilldown"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "drilldown"), nil
}

// Load reads the config at path. An empty path means DefaultPath; a
// missing default file yields Default, a missing explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	for _, k := range md.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, k.String())
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	known := false
	for _, k := range storage.Kinds {
		if strings.EqualFold(c.Store.Backend, string(k)) {
			known = true
		}
	}
	if !known {
		return errors.New(errors.ErrCodeInvalidInput, "store.backend %q is not one of %v", c.Store.Backend, storage.Kinds)
	}
	for key, g := range c.Groups {
		if g.Color != "" {
			if err := errors.ValidateColor(g.Color); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidColor, err, "groups.%s.color", key)
			}
		}
		if g.Radius != 0 {
			if err := errors.ValidateRadius(g.Radius); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "groups.%s.radius", key)
			}
		}
	}
	return nil
}

// StorageOptions converts the [store] section, filling default locations
// under the data directory.
func (c *Config) StorageOptions() (storage.Options, error) {
	s := c.Store
	opts := storage.Options{
		Backend:    storage.Kind(strings.ToLower(s.Backend)),
		Prefix:     s.Prefix,
		Dir:        expandHome(s.Dir),
		Path:       expandHome(s.SQLitePath),
		RedisAddr:  s.RedisAddr,
		RedisDB:    s.RedisDB,
		MongoURI:   s.MongoURI,
		Database:   s.MongoDatabase,
		Collection: s.MongoCollection,
	}
	if opts.Backend == storage.KindFile && opts.Dir == "" {
		dir, err := DataDir()
		if err != nil {
			return opts, err
		}
		opts.Dir = filepath.Join(dir, "store")
	}
	if opts.Backend == storage.KindSQLite && opts.Path == "" {
		dir, err := DataDir()
		if err != nil {
			return opts, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return opts, fmt.Errorf("create data dir: %w", err)
		}
		opts.Path = filepath.Join(dir, "store.db")
	}
	if opts.Backend == storage.KindRedis && opts.RedisAddr == "" {
		opts.RedisAddr = "localhost:6379"
	}
	if opts.Backend == storage.KindMongo {
		if opts.MongoURI == "" {
			opts.MongoURI = "mongodb://localhost:27017"
		}
		if opts.Database == "" {
			opts.Database = "drilldown"
		}
	}
	return opts, nil
}

// LayoutOptions converts the [layout] section; zero fields keep the
// layout defaults.
func (c *Config) LayoutOptions() layout.Options {
	l := c.Layout
	return layout.Options{
		Width:        l.Width,
		Height:       l.Height,
		Iterations:   l.Iterations,
		Repel:        l.Repel,
		Attract:      l.Attract,
		Damping:      l.Damping,
		LinkDistance: l.LinkDistance,
		Padding:      layout.DefaultOptions().Padding,
	}
}

// GroupProps converts the [groups.*] tables for session seeding.
func (c *Config) GroupProps() map[string]groups.Props {
	if len(c.Groups) == 0 {
		return nil
	}
	out := make(map[string]groups.Props, len(c.Groups))
	for k, g := range c.Groups {
		out[k] = groups.Props{Title: g.Title, Color: g.Color, Radius: g.Radius, Description: g.Description}
	}
	return out
}

// DataDir returns drilldown's data directory.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "drilldown"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "drilldown"), nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
