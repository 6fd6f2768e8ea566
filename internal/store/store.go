package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nocap-ai/nocap/internal/model"
)

// ErrNotFound indicates the claim id does not exist in the store
var ErrNotFound = errors.New("claim not found")

// Store defines the claim store adapter. All shared state lives behind
// this interface; it is the sole synchronization point between requests.
type Store interface {
	// List returns all claims. Order is whatever the backend returns;
	// callers sort defensively.
	List(ctx context.Context) ([]model.Claim, error)

	// Get returns the claim with the given id, or ErrNotFound
	Get(ctx context.Context, id string) (*model.Claim, error)

	// Insert persists a new claim and returns the stored row
	Insert(ctx context.Context, claim model.Claim) (*model.Claim, error)

	// Update applies a partial update and returns the stored row,
	// or ErrNotFound if the id does not exist
	Update(ctx context.Context, id string, update model.ClaimUpdate) (*model.Claim, error)
}

// New creates a store from configuration
func New(cfg *model.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "rest":
		return NewRESTStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: rest, memory)", cfg.Backend)
	}
}

// SortNewestFirst orders claims by created_at descending, in place.
// The backend does not guarantee a stable order, so consumers re-sort.
func SortNewestFirst(claims []model.Claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
}
