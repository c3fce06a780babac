// Package cache provides caching for rendered artifacts and previews.
//
// Backends share one Cache interface: a file cache for CLI usage, a Redis
// cache for the HTTP service and a null cache when caching is disabled.
// Keys are generated by a Keyer so callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// TTL constants for the different cached entry kinds.
const (
	// TTLArtifact is how long encoded composites are cached.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLPreview is how long wireframe previews are cached.
	TTLPreview = 24 * time.Hour
)

// Cache is the interface all cache backends implement.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the render settings that distinguish otherwise
// identical composites.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// PreviewKeyOpts are the settings that distinguish wireframe previews.
type PreviewKeyOpts struct {
	Format string `json:"format"`
}

// Keyer generates cache keys. Implementations must be deterministic: the
// same inputs always produce the same key.
type Keyer interface {
	// ArtifactKey generates a key for an encoded composite. contentHash
	// covers the template document and every input photo.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string

	// PreviewKey generates a key for a wireframe preview of a template.
	PreviewKey(contentHash string, opts PreviewKeyOpts) string
}

// DefaultKeyer generates hash-based keys with type prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts)
}

// PreviewKey generates a key for preview caching.
func (k *DefaultKeyer) PreviewKey(contentHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", contentHash, opts)
}
