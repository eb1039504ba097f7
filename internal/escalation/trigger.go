package escalation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dsemenov/wakeup-alarm/internal/camera"
	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
	"github.com/dsemenov/wakeup-alarm/internal/metrics"
	"github.com/dsemenov/wakeup-alarm/internal/repository/registry"
)

// Broadcaster is the delivery collaborator: it exposes the inbound channel
// for recipient discovery and the fire-and-forget photo broadcast.
type Broadcaster interface {
	ListKnownRecipients(ctx context.Context) ([]domain.RecipientID, error)
	Broadcast(ctx context.Context, image []byte, caption string, recipients []domain.RecipientID) (delivered, failed int)
}

// Trigger couples wrong answers to the capture-and-broadcast side effect.
//
// Each Fire spawns an independent pipeline: capture a still image, refresh
// the subscriber registry from the delivery collaborator's inbound channel,
// broadcast to the full merged set. Pipelines never block the gate, are never
// cancelled once started, and may run concurrently; the registry store is the
// only shared state and its merges are union-based.
type Trigger struct {
	// cam captures the still image; any failure aborts the pipeline silently.
	cam camera.Camera
	// broadcaster delivers the photo; nil disables delivery entirely.
	broadcaster Broadcaster
	// store persists the recipient registry across restarts.
	store registry.Store
	// collector records escalation metrics.
	collector *metrics.Collector
	// caption is attached to every escalation photo.
	caption string

	// inFlight tracks running pipelines so shutdown can drain them.
	inFlight sync.WaitGroup
}

// NewTrigger wires the escalation collaborators together.
func NewTrigger(
	cam camera.Camera,
	broadcaster Broadcaster,
	store registry.Store,
	collector *metrics.Collector,
	caption string,
) *Trigger {
	return &Trigger{
		cam:         cam,
		broadcaster: broadcaster,
		store:       store,
		collector:   collector,
		caption:     caption,
	}
}

// Fire starts one asynchronous escalation pipeline and returns immediately.
// The pipeline is detached from the caller's cancellation: once triggered it
// runs to completion or failure.
func (t *Trigger) Fire(ctx context.Context) {
	if t.broadcaster == nil {
		logger.Debug(ctx, "Delivery not configured, skipping escalation")

		return
	}

	t.collector.RecordEscalationStarted()

	pipelineCtx := logger.WithKV(context.WithoutCancel(ctx), "escalation_id", uuid.NewString())

	t.inFlight.Add(1)

	go func() {
		defer t.inFlight.Done()
		t.run(pipelineCtx)
	}()
}

// Wait blocks until all in-flight pipelines have finished.
// Used by the daemon on shutdown; never called from the gate.
func (t *Trigger) Wait() {
	t.inFlight.Wait()
}

// run executes one pipeline: capture, registry refresh, broadcast.
func (t *Trigger) run(ctx context.Context) {
	image, err := t.cam.CaptureStillImage(ctx)
	if err != nil {
		logger.DebugKV(ctx, "No image captured, aborting escalation", "error", err)
		t.collector.RecordEscalationSkipped()

		return
	}

	recipients := t.refreshRegistry(ctx)
	if len(recipients) == 0 {
		logger.Info(ctx, "No recipients known, nothing to broadcast")

		return
	}

	delivered, failed := t.broadcaster.Broadcast(ctx, image, t.caption, recipients)
	for range delivered {
		t.collector.RecordDelivery(true)
	}

	for range failed {
		t.collector.RecordDelivery(false)
	}

	logger.InfoKV(ctx, "Escalation broadcast finished",
		"recipients", len(recipients), "delivered", delivered, "failed", failed)
}

// refreshRegistry queries the inbound channel for newly seen recipients and
// unions them into the persisted registry, returning the full merged set.
// Discovery failure falls back to what is already persisted.
func (t *Trigger) refreshRegistry(ctx context.Context) []domain.RecipientID {
	discovered, err := t.broadcaster.ListKnownRecipients(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Recipient discovery failed, using persisted registry", "error", err)

		discovered = nil
	}

	merged, err := t.store.Merge(ctx, discovered)
	if err != nil {
		logger.ErrorKV(ctx, "Registry merge failed", "error", err)

		return discovered
	}

	return merged
}
