// Package cache provides pluggable caching for layout results and
// rendered artifacts.
//
// Three backends are included:
//   - FileCache: directory-backed cache for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: disables caching entirely
//
// Keys are produced by a Keyer so every consumer derives them the same
// way: a layout result is keyed by the model hash plus the parameters
// that shaped it, a rendered artifact by the layout hash plus the output
// options. Changing any input changes the key, so stale entries are
// never served, only orphaned.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the inputs that distinguish one layout result from
// another for the same model.
type LayoutKeyOpts struct {
	ParamsHash string
	Iterations int
}

// RenderKeyOpts are the inputs that distinguish one rendered artifact
// from another for the same layout.
type RenderKeyOpts struct {
	Format string
	Width  int
	Height int
}

// Keyer generates cache keys for the different cached object types.
type Keyer interface {
	// ImportKey generates a key for a parsed import, namespaced by the
	// source format.
	ImportKey(format, source string) string

	// LayoutKey generates a key for a layout result.
	LayoutKey(modelHash string, opts LayoutKeyOpts) string

	// RenderKey generates a key for a rendered artifact.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ImportKey generates a key for a parsed import.
func (k *DefaultKeyer) ImportKey(format, source string) string {
	return "import:" + format + ":" + source
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", modelHash, opts)
}

// RenderKey generates a key for a rendered artifact.
func (k *DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey("render", layoutHash, opts)
}

// Stage TTLs shared by every pipeline consumer. Imports are re-read
// cheaply so they expire first; layouts and renders are expensive and
// fully keyed by their inputs, so they can live longer.
const (
	TTLImport = 24 * time.Hour
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 7 * 24 * time.Hour
)
