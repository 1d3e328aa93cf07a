package storage

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a backend type.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindRedis  Kind = "redis"
	KindMongo  Kind = "mongo"
	KindSQLite Kind = "sqlite"
)

// Kinds lists every supported backend.
var Kinds = []Kind{KindMemory, KindFile, KindRedis, KindMongo, KindSQLite}

// Options selects and configures a backend.
type Options struct {
	Backend Kind

	// Prefix is prepended to every key. Empty means DefaultPrefix.
	Prefix string

	Dir        string // file
	Path       string // sqlite
	RedisAddr  string
	RedisDB    int
	MongoURI   string
	Database   string // mongo
	Collection string // mongo
}

// Open creates the backend described by opts and wraps it in a Store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var (
		b   Backend
		err error
	)
	switch Kind(strings.ToLower(string(opts.Backend))) {
	case KindMemory, "":
		b = NewMemory()
	case KindFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file storage requires a directory")
		}
		b, err = NewFile(opts.Dir)
	case KindSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		b, err = NewSQLite(opts.Path)
	case KindRedis:
		b, err = NewRedis(ctx, opts.RedisAddr, opts.RedisDB)
	case KindMongo:
		b, err = NewMongo(ctx, opts.MongoURI, opts.Database, opts.Collection)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of %v)", opts.Backend, Kinds)
	}
	if err != nil {
		return nil, err
	}
	return New(b, prefix), nil
}
