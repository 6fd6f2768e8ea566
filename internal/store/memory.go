package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/nocap-ai/nocap/internal/model"
)

// MemoryStore keeps claims in process memory. Used for tests and
// single-node runs without a configured REST backend. Claims never
// expire; the cache is used purely for its concurrent map semantics.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// List returns all claims in arbitrary order
func (s *MemoryStore) List(ctx context.Context) ([]model.Claim, error) {
	items := s.cache.Items()
	claims := make([]model.Claim, 0, len(items))
	for _, item := range items {
		claim := item.Object.(model.Claim)
		claims = append(claims, *cloneClaim(&claim))
	}
	return claims, nil
}

// Get returns the claim with the given id, or ErrNotFound
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Claim, error) {
	val, found := s.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	claim := val.(model.Claim)
	return cloneClaim(&claim), nil
}

// Insert persists a new claim
func (s *MemoryStore) Insert(ctx context.Context, claim model.Claim) (*model.Claim, error) {
	s.cache.Set(claim.ID, *cloneClaim(&claim), gocache.NoExpiration)
	return cloneClaim(&claim), nil
}

// Update applies a partial update. Last writer wins; there is no
// version check on concurrent updates.
func (s *MemoryStore) Update(ctx context.Context, id string, update model.ClaimUpdate) (*model.Claim, error) {
	val, found := s.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}

	claim := val.(model.Claim)
	if update.Status != nil {
		claim.Status = *update.Status
	}
	if update.CID != nil {
		claim.CID = *update.CID
	}
	if update.AnalysisResults != nil {
		claim.AnalysisResults = update.AnalysisResults
	}

	s.cache.Set(id, *cloneClaim(&claim), gocache.NoExpiration)
	return cloneClaim(&claim), nil
}

// cloneClaim deep-copies a claim so callers cannot mutate stored state
func cloneClaim(claim *model.Claim) *model.Claim {
	copied := *claim
	if claim.AnalysisResults != nil {
		results := *claim.AnalysisResults
		results.PropagandaFlags = append([]string(nil), claim.AnalysisResults.PropagandaFlags...)
		copied.AnalysisResults = &results
	}
	return &copied
}
