// Package config loads mindmap settings from a TOML file and MINDMAP_*
// environment variables.
//
// Precedence, lowest first: built-in defaults, the config file, the
// environment, then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/render/treelayout"
	"github.com/matzehuels/mindmap/pkg/store"
)

const appName = "mindmap"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MINDMAP_"

type Config struct {
	ExpandDepth int `toml:"expand_depth"`

	Store  Store  `toml:"store"`
	Cache  Cache  `toml:"cache"`
	Layout Layout `toml:"layout"`
	Server Server `toml:"server"`
	Source Source `toml:"source"`
}

type Store struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

type Cache struct {
	Backend   string `toml:"backend"` // file, redis or none
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
}

type Layout struct {
	NodeSpacing  float64 `toml:"node_spacing"`
	LayerSpacing float64 `toml:"layer_spacing"`
}

type Server struct {
	Addr    string `toml:"addr"`
	MCPAddr string `toml:"mcp_addr"`
}

type Source struct {
	BaseURL string `toml:"base_url"`
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ExpandDepth: mindmap.DefaultExpandDepth,
		Store: Store{
			Backend:       store.BackendFile,
			RedisAddr:     "localhost:6379",
			RedisPrefix:   "mindmap:",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Cache: Cache{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
		},
		Layout: Layout{
			NodeSpacing:  treelayout.DefaultNodeSpacing,
			LayerSpacing: treelayout.DefaultLayerSpacing,
		},
		Server: Server{
			Addr:    ":5000",
			MCPAddr: ":5001",
		},
		Source: Source{
			BaseURL: mindmap.DefaultSourceBase,
		},
	}
}

// Path returns the default config file location,
// $XDG_CONFIG_HOME/mindmap/config.toml or ~/.config/mindmap/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means the default location, which may be absent; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			err := cfg.finish()
			return cfg, err
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	err := cfg.finish()
	return cfg, err
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks value ranges, backend names and the source base URL.
func (c Config) Validate() error {
	if c.ExpandDepth < 0 {
		return fmt.Errorf("expand_depth must be >= 0, got %d", c.ExpandDepth)
	}
	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite, store.BackendRedis, store.BackendMongo:
	default:
		return fmt.Errorf("unknown store.backend %q (must be file, sqlite, redis or mongo)", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown cache.backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Layout.NodeSpacing < 0 || c.Layout.LayerSpacing < 0 {
		return fmt.Errorf("layout spacing must be >= 0")
	}
	if c.Source.BaseURL != "" {
		if err := apperrors.ValidateURL(c.Source.BaseURL); err != nil {
			return fmt.Errorf("source.base_url: %w", err)
		}
	}
	return nil
}

// StoreConfig converts the store section for store.Open.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		SQLitePath:    c.Store.SQLitePath,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		RedisPrefix:   c.Store.RedisPrefix,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
	}
}

// applyEnv overrides c from MINDMAP_* variables. Malformed numbers are
// reported together; the other overrides still apply.
func (c *Config) applyEnv() error {
	var env envReader
	c.ExpandDepth = env.intVal("EXPAND_DEPTH", c.ExpandDepth)

	c.Store.Backend = env.strVal("STORE_BACKEND", c.Store.Backend)
	c.Store.Dir = env.strVal("STORE_DIR", c.Store.Dir)
	c.Store.SQLitePath = env.strVal("STORE_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.RedisAddr = env.strVal("STORE_REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = env.strVal("STORE_REDIS_PASSWORD", c.Store.RedisPassword)
	c.Store.RedisDB = env.intVal("STORE_REDIS_DB", c.Store.RedisDB)
	c.Store.MongoURI = env.strVal("STORE_MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDatabase = env.strVal("STORE_MONGO_DATABASE", c.Store.MongoDatabase)

	c.Cache.Backend = env.strVal("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Dir = env.strVal("CACHE_DIR", c.Cache.Dir)
	c.Cache.RedisAddr = env.strVal("CACHE_REDIS_ADDR", c.Cache.RedisAddr)

	c.Layout.NodeSpacing = env.floatVal("LAYOUT_NODE_SPACING", c.Layout.NodeSpacing)
	c.Layout.LayerSpacing = env.floatVal("LAYOUT_LAYER_SPACING", c.Layout.LayerSpacing)

	c.Server.Addr = env.strVal("SERVER_ADDR", c.Server.Addr)
	c.Server.MCPAddr = env.strVal("SERVER_MCP_ADDR", c.Server.MCPAddr)

	c.Source.BaseURL = env.strVal("SOURCE_BASE_URL", c.Source.BaseURL)
	return errors.Join(env.errs...)
}

type envReader struct {
	errs []error
}

func (r *envReader) strVal(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func (r *envReader) intVal(key string, fallback int) int {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s=%q: not an integer", EnvPrefix, key, v))
		return fallback
	}
	return n
}

func (r *envReader) floatVal(key string, fallback float64) float64 {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s=%q: not a number", EnvPrefix, key, v))
		return fallback
	}
	return f
}
