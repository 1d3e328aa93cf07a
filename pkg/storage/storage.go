package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/observability"
)

// DefaultPrefix is prepended to every key written through a Store.
const DefaultPrefix = "bbps_"

// Backend is a raw key/value store. Keys arrive already prefixed.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Get returns the value under key. found is false for a missing key.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Store is the prefixed, validated façade over a Backend.
type Store struct {
	backend Backend
	prefix  string
}

// New returns a store writing keys under prefix.
func New(b Backend, prefix string) *Store {
	return &Store{backend: b, prefix: prefix}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Prefix returns the key prefix.
func (s *Store) Prefix() string { return s.prefix }

func (s *Store) key(key string) (string, error) {
	if err := errors.ValidateStorageKey(key); err != nil {
		return "", err
	}
	return s.prefix + key, nil
}

func (s *Store) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend.Name(), op, time.Since(start), err)
}

// Get returns the raw value under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := s.key(key)
	if err != nil {
		return nil, false, err
	}
	start := time.Now()
	data, found, err := s.backend.Get(ctx, k)
	s.observe(ctx, "get", start, err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeStorage, err, "failed to retrieve %s", key)
	}
	return data, found, nil
}

// Set stores a raw value under key.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.backend.Set(ctx, k, data)
	s.observe(ctx, "set", start, err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "failed to store %s", key)
	}
	return nil
}

// GetJSON decodes the value under key into v.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "failed to decode %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "failed to encode %s", key)
	}
	return s.Set(ctx, key, data)
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.backend.Delete(ctx, k)
	s.observe(ctx, "delete", start, err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "failed to remove %s", key)
	}
	return nil
}

// Has reports whether key holds a value.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

// Keys lists the store's keys, without prefix, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	raw, err := s.backend.Keys(ctx, s.prefix)
	s.observe(ctx, "keys", start, err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "failed to list keys")
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Size returns the number of keys in the store.
func (s *Store) Size(ctx context.Context) (int, error) {
	keys, err := s.Keys(ctx)
	return len(keys), err
}

// Clear removes every key under the store's prefix. Other keys in the
// backend are left alone.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
