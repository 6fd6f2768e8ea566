// Package gateway is the submission half of the pipeline: it validates
// and creates claims and hands verification to the dispatcher without
// blocking the caller. It also serves the claim feed.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/lifecycle"
	"github.com/nocap-ai/nocap/internal/model"
	"github.com/nocap-ai/nocap/internal/store"
)

// ErrEmptyClaim indicates the submission had no usable claim text
var ErrEmptyClaim = errors.New("claim_text is required")

// Gateway creates claims and schedules their verification
type Gateway struct {
	store  store.Store
	engine *lifecycle.Engine
	sched  lifecycle.Scheduler
	logger *zap.Logger
	now    func() time.Time
}

// New creates a gateway
func New(claimStore store.Store, engine *lifecycle.Engine, sched lifecycle.Scheduler, logger *zap.Logger) *Gateway {
	return &Gateway{
		store:  claimStore,
		engine: engine,
		sched:  sched,
		logger: logger,
		now:    time.Now,
	}
}

// Submit validates and persists a new claim and schedules verification.
// It returns immediately with status PENDING; callers observe later
// state changes by re-reading the claim.
func (g *Gateway) Submit(ctx context.Context, claimText, sourceURL string) (*model.Claim, error) {
	claimText = strings.TrimSpace(claimText)
	if claimText == "" {
		return nil, ErrEmptyClaim
	}

	id := uuid.NewString()
	claim := model.Claim{
		ID:        id,
		ClaimText: claimText,
		SourceURL: strings.TrimSpace(sourceURL),
		CID:       model.PlaceholderCIDPrefix + strings.SplitN(id, "-", 2)[0],
		Status:    model.StatusPending,
		CreatedAt: g.now().UTC(),
	}

	stored, err := g.store.Insert(ctx, claim)
	if err != nil {
		return nil, err
	}

	if err := g.sched.Schedule(lifecycle.NewVerifyJob(g.engine, id)); err != nil {
		g.logger.Error("failed to schedule verification",
			zap.String("claim_id", id),
			zap.Error(err))
	}

	g.logger.Info("claim submitted",
		zap.String("claim_id", id),
		zap.String("cid", claim.CID))
	return stored, nil
}

// List returns all claims newest-first. The store does not guarantee a
// stable order, so the result is re-sorted here.
func (g *Gateway) List(ctx context.Context) ([]model.Claim, error) {
	claims, err := g.store.List(ctx)
	if err != nil {
		return nil, err
	}
	store.SortNewestFirst(claims)
	return claims, nil
}
