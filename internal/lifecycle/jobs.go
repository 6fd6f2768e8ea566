package lifecycle

import (
	"context"
	"time"
)

// transitionTimeout bounds a queued transition's execution, including
// the Oracle and archive calls
const transitionTimeout = 3 * time.Minute

// VerifyJob is a queued verify transition for one claim
type VerifyJob struct {
	engine *Engine
	id     string
}

// NewVerifyJob creates a verify job for the given claim id
func NewVerifyJob(engine *Engine, id string) *VerifyJob {
	return &VerifyJob{engine: engine, id: id}
}

// Name identifies the job kind in logs
func (j *VerifyJob) Name() string { return "verify" }

// Execute runs the verify transition
func (j *VerifyJob) Execute(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, transitionTimeout)
	defer cancel()

	_, err := j.engine.Verify(ctx, j.id)
	return err
}

// BroadcastJob is a queued broadcast transition for one claim
type BroadcastJob struct {
	engine *Engine
	id     string
}

// NewBroadcastJob creates a broadcast job for the given claim id
func NewBroadcastJob(engine *Engine, id string) *BroadcastJob {
	return &BroadcastJob{engine: engine, id: id}
}

// Name identifies the job kind in logs
func (j *BroadcastJob) Name() string { return "broadcast" }

// Execute runs the broadcast transition
func (j *BroadcastJob) Execute(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, transitionTimeout)
	defer cancel()

	_, err := j.engine.Broadcast(ctx, j.id)
	return err
}
