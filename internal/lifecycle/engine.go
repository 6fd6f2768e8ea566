// Package lifecycle implements the claim state machine
// {PENDING → ANALYZING → (VERIFIED|DEBUNKED) → BROADCASTED} and the
// side effects of each transition. Transitions complete and report
// success once their precondition (claim exists) holds, even when every
// downstream dependency fails: the Oracle verdict degrades to a fixed
// fallback, a failed archive upload keeps the previous cid, and log or
// sink delivery failures are logged and swallowed.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/archive"
	"github.com/nocap-ai/nocap/internal/broadcastlog"
	"github.com/nocap-ai/nocap/internal/model"
	"github.com/nocap-ai/nocap/internal/notify"
	"github.com/nocap-ai/nocap/internal/store"
	"github.com/nocap-ai/nocap/internal/worker"
)

// ErrNotFound mirrors the store's sentinel for callers of the engine
var ErrNotFound = store.ErrNotFound

// Analyzer produces a structured verdict for a claim text
type Analyzer interface {
	Analyze(ctx context.Context, claimText string) (*model.AnalysisResults, error)
}

// Scheduler enqueues the next transition without awaiting it
type Scheduler interface {
	Schedule(job worker.Job) error
}

// Engine owns the claim lifecycle transitions
type Engine struct {
	store    store.Store
	analyzer Analyzer
	archive  archive.Uploader
	notifier notify.Notifier
	log      broadcastlog.Appender
	sched    Scheduler
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine wires the lifecycle engine to its collaborators
func NewEngine(
	claimStore store.Store,
	analyzer Analyzer,
	uploader archive.Uploader,
	notifier notify.Notifier,
	log broadcastlog.Appender,
	sched Scheduler,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:    claimStore,
		analyzer: analyzer,
		archive:  uploader,
		notifier: notifier,
		log:      log,
		sched:    sched,
		logger:   logger,
		now:      time.Now,
	}
}

// Verify runs the PENDING → ANALYZING → (VERIFIED|DEBUNKED) transition.
// The claim's current status is not checked first: re-driving a claim
// that already advanced re-executes the side effects, and the last
// writer wins.
func (e *Engine) Verify(ctx context.Context, id string) (*model.Claim, error) {
	claim, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	analyzing := model.StatusAnalyzing
	if _, err := e.store.Update(ctx, id, model.ClaimUpdate{Status: &analyzing}); err != nil {
		return nil, err
	}

	results, err := e.analyzer.Analyze(ctx, claim.ClaimText)
	if err != nil {
		e.logger.Warn("oracle analysis failed, using fallback verdict",
			zap.String("claim_id", id),
			zap.Error(err))
		results = model.FallbackAnalysis()
	}

	status := model.ResolveVerdict(results.TruthScore)
	updated, err := e.store.Update(ctx, id, model.ClaimUpdate{
		Status:          &status,
		AnalysisResults: results,
	})
	if err != nil {
		return nil, err
	}

	// Hand the broadcast stage to the dispatcher without awaiting it
	if err := e.sched.Schedule(NewBroadcastJob(e, id)); err != nil {
		e.logger.Error("failed to schedule broadcast",
			zap.String("claim_id", id),
			zap.Error(err))
	}

	return updated, nil
}

// Broadcast runs the terminal transition: archive upload (best effort),
// report rendering, durable log append, status persist, sink delivery
// (best effort). Returns the final cid.
func (e *Engine) Broadcast(ctx context.Context, id string) (string, error) {
	claim, err := e.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	cid := claim.CID

	// Upload a canonical rendering of the full claim record. Failure
	// keeps the previous cid and never blocks the broadcast.
	if rendered, err := json.MarshalIndent(claim, "", "  "); err == nil {
		uploaded, err := e.archive.UploadText(ctx, string(rendered))
		switch {
		case err == nil:
			cid = uploaded
			e.logger.Info("claim archived",
				zap.String("claim_id", id),
				zap.String("cid", cid))
		case errors.Is(err, archive.ErrMissingAPIKey):
			e.logger.Warn("archive credentials missing, skipping upload",
				zap.String("claim_id", id))
		default:
			e.logger.Warn("archive upload failed, keeping previous cid",
				zap.String("claim_id", id),
				zap.Error(err))
		}
	}

	report := RenderReport(claim, cid, e.now().UTC())

	if err := e.log.Append(report); err != nil {
		e.logger.Error("broadcast log append failed",
			zap.String("claim_id", id),
			zap.Error(err))
	}

	broadcasted := model.StatusBroadcasted
	if _, err := e.store.Update(ctx, id, model.ClaimUpdate{
		Status: &broadcasted,
		CID:    &cid,
	}); err != nil {
		return "", err
	}

	if err := e.notifier.Notify(ctx, report); err != nil {
		e.logger.Warn("notification delivery failed",
			zap.String("claim_id", id),
			zap.Error(err))
	}

	e.logger.Info("broadcast complete", zap.String("claim_id", id))
	return cid, nil
}
