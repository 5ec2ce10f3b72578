// Package geocache keeps geocoding resolutions keyed by address signature so an
// address is looked up at most once, and owns the decision of when a live
// lookup is needed.
package geocache

import (
	"context"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// Store persists resolutions by signature plus the sitemap last-modified
// timestamp. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored resolution for signature; ok is false on a miss.
	Get(ctx context.Context, signature string) (res domain.GeoResolution, ok bool, err error)
	// Put inserts or overwrites the resolution for res.Signature.
	Put(ctx context.Context, res domain.GeoResolution) error
	LastModified(ctx context.Context) (t time.Time, ok bool, err error)
	SetLastModified(ctx context.Context, t time.Time) error
	Close() error
}
