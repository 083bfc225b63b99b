// Package store persists named mind map documents.
//
// Maps are stored as opaque GoJS TreeModel JSON under a validated name.
// Four backends share the [Store] interface:
//   - file: one JSON file per map in a directory (CLI default)
//   - sqlite: a single database file, no server required
//   - redis: shared storage for several API instances
//   - mongo: document storage for hosted deployments
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Backend: store.BackendFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = store.SaveDocument(ctx, s, "golang", document.New(nodes))
//	d, err := store.LoadDocument(ctx, s, "golang")
//
// Stores returned by [Open] validate names and report every operation to
// observability.Store().
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/document"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// ErrNotFound is returned when no map is stored under a name.
var ErrNotFound = errors.New("map not found")

// Store saves, loads, lists and deletes named maps.
type Store interface {
	// Save stores data under name, replacing any previous map.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns the map stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, error)

	// List returns all stored names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Delete removes the map stored under name, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	Dir string // file

	SQLitePath string // sqlite

	RedisAddr     string // redis
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	MongoURI      string // mongo
	MongoDatabase string

	Logger *log.Logger
}

// Open connects to the configured backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}
	switch backend {
	case BackendFile:
		s, err = NewFileStore(cfg.Dir)
	case BackendSQLite:
		s, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case BackendRedis:
		s, err = NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "open %s store", backend)
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("opened store", "backend", backend)
	}
	return Observe(s, backend), nil
}

// Observe wraps s so that names are validated and operations are reported
// to the registered store hooks under the given backend label.
func Observe(s Store, backend string) Store {
	return &observed{Store: s, backend: backend}
}

type observed struct {
	Store
	backend string
}

func (o *observed) Save(ctx context.Context, name string, data []byte) error {
	err := apperrors.ValidateMapName(name)
	if err == nil {
		err = wrap(o.Store.Save(ctx, name, data), "save", name)
	}
	observability.Store().OnSave(ctx, o.backend, name, len(data), err)
	return err
}

func (o *observed) Load(ctx context.Context, name string) ([]byte, error) {
	err := apperrors.ValidateMapName(name)
	var data []byte
	if err == nil {
		data, err = o.Store.Load(ctx, name)
		err = wrap(err, "load", name)
	}
	observability.Store().OnLoad(ctx, o.backend, name, err)
	return data, err
}

func (o *observed) List(ctx context.Context) ([]string, error) {
	names, err := o.Store.List(ctx)
	return names, wrap(err, "list", "")
}

func (o *observed) Delete(ctx context.Context, name string) error {
	err := apperrors.ValidateMapName(name)
	if err == nil {
		err = wrap(o.Store.Delete(ctx, name), "delete", name)
	}
	observability.Store().OnDelete(ctx, o.backend, name, err)
	return err
}

// wrap attaches an application code, keeping ErrNotFound matchable.
func wrap(err error, op, name string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodeMapNotFound, err, "no map named %q", name)
	case name == "":
		return apperrors.Wrap(apperrors.ErrCodeStorage, err, "%s maps", op)
	}
	return apperrors.Wrap(apperrors.ErrCodeStorage, err, "%s map %q", op, name)
}

// SaveDocument encodes d and stores it under name.
func SaveDocument(ctx context.Context, s Store, name string, d *document.Document) error {
	data, err := document.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.Save(ctx, name, data)
}

// LoadDocument loads and decodes the map stored under name.
func LoadDocument(ctx context.Context, s Store, name string) (*document.Document, error) {
	data, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	d, err := document.Read(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode map %q", name)
	}
	return d, nil
}

func now() int64 { return time.Now().Unix() }
