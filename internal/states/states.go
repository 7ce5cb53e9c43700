// Package states provides access to sensor state snapshots.
//
// Loaders only need point lookups (Provider); the service additionally
// maintains snapshots through ingestion (Store). Reads always return
// private copies, so a snapshot handed to a loader is never mutated by
// a concurrent ingest.
package states

import (
	"context"
	"errors"

	"github.com/meterhub/forecastd/internal/models"
)

// ErrNotFound signals that no state exists for the requested entity.
var ErrNotFound = errors.New("state not found")

// Provider is the narrow read contract consumed by the loaders.
type Provider interface {
	// Get returns the current snapshot for the entity, or ErrNotFound.
	Get(ctx context.Context, entityID string) (*models.State, error)
}

// Store extends Provider with the write operations used by ingestion
// and the HTTP API.
type Store interface {
	Provider

	// Upsert inserts or replaces the snapshot for its entity.
	Upsert(ctx context.Context, state *models.State) error

	// List returns a snapshot of all known states.
	List(ctx context.Context) ([]*models.State, error)

	// Close releases any resources held by the store.
	Close() error
}
