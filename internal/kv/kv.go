// Package kv defines the Store interface and common types for all key-value
// backends used by the checklist service.
//
// New backends are added by implementing the Store interface and registering
// with the factory via an init() function in the backend's own file:
//
//	func init() {
//	    kv.Register("mybackend", func(cfg *config.Config) (Store, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
package kv

import (
	"context"
	"fmt"

	"github.com/checklist-rve/checklist-rve/internal/config"
)

// Store defines the interface for all key-value backends.
// Values are opaque byte slices; callers own (de)serialization.
type Store interface {
	// Get retrieves the raw value at key. The second return is false when
	// the key does not exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value at key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// SetNX stores value at key only if the key does not exist yet.
	// It returns true when the write happened.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)

	// CompareAndSwap stores value at key only if the current stored bytes
	// are exactly old. It returns true when the swap happened. A missing
	// key never matches.
	CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// LPush prepends value to the list at key, creating the list if needed.
	LPush(ctx context.Context, key, value string) error

	// LRem removes all occurrences of value from the list at key.
	LRem(ctx context.Context, key, value string) error

	// LRange returns all elements of the list at key, head first.
	// A missing list yields an empty slice.
	LRange(ctx context.Context, key string) ([]string, error)

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// Factory function type for creating key-value backends
type FactoryFunc func(*config.Config) (Store, error)

var factories = make(map[string]FactoryFunc)

// Register registers a key-value backend factory
func Register(name string, factory FactoryFunc) {
	factories[name] = factory
}

// NewStore creates a key-value backend based on configuration
func NewStore(cfg *config.Config) (Store, error) {
	factory, ok := factories[cfg.KV.Backend]
	if !ok {
		return nil, fmt.Errorf("unsupported kv backend: %s (must be 'redis' or 'memory')", cfg.KV.Backend)
	}

	return factory(cfg)
}
