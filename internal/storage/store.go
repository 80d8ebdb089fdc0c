// Package storage persists named collections as whole serialized strings.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrInvalidKey    = errors.New("invalid storage key")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// KVStore is the synchronous key-value collaborator the state managers
// persist through. Get reports ok=false for a key that was never set.
type KVStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// ValidateKey rejects keys that cannot double as file names.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Options selects and configures a driver for Open.
type Options struct {
	Driver     string
	DataDir    string
	MongoURI   string
	MongoDB    string
	SQLitePath string
}

// Open builds the store named by opts.Driver. The returned close func
// releases driver resources and is never nil.
func Open(ctx context.Context, opts Options) (KVStore, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case "", "file":
		s, err := NewFileStore(opts.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "mongo":
		s, err := NewMongoStore(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, noop, err
		}
		return s, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.Close(ctx)
		}, nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, opts.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
