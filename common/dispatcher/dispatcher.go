// Package dispatcher delivers clip.created events to the enrichment
// pipeline. Delivery is at-least-once and fully decoupled from the store
// write that produced the event: the ingestion path hands the event off
// and returns; retries, backoff and dead-lettering run on a background
// goroutine with a bounded attempt budget.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
)

// Publisher abstracts the outbound event sink. The production
// implementation is a Redis stream; tests substitute a fake.
type Publisher interface {
	Publish(ctx context.Context, stream string, event models.ClipEvent) error
	PublishDeadLetter(ctx context.Context, stream string, letter models.DeadLetter) error
}

// Stats is a snapshot of delivery counters.
type Stats struct {
	Published    int64 `json:"published"`
	Retried      int64 `json:"retried"`
	DeadLettered int64 `json:"dead_lettered"`
	Dropped      int64 `json:"dropped"`
}

// Dispatcher owns the outbound delivery loop.
type Dispatcher struct {
	publisher Publisher
	cfg       config.DispatcherConfig
	log       *logger.Logger

	events chan models.ClipEvent
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool

	published    atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
	dropped      atomic.Int64
}

// New creates a dispatcher and starts its delivery goroutine.
func New(publisher Publisher, cfg config.DispatcherConfig, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		events:    make(chan models.ClipEvent, cfg.BufferSize),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// NotifyCreated enqueues a clip.created event for a freshly created content
// row. It never blocks, never fails the caller, and is safe against a
// concurrent Close: if the buffer is full the event is delivered on its own
// goroutine, and after shutdown the event is counted as dropped instead.
func (d *Dispatcher) NotifyCreated(contentID uuid.UUID, sourceURL, tenantID string) {
	event := models.NewClipCreatedEvent(contentID, sourceURL, tenantID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.dropped.Add(1)
		d.log.Warn("dispatcher closed, event dropped",
			"content_id", contentID,
			"event_id", event.EventID,
		)
		return
	}

	select {
	case d.events <- event:
	default:
		d.log.Warn("dispatcher buffer full, delivering out of band",
			"content_id", contentID,
			"event_id", event.EventID,
		)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(event)
		}()
	}
}

// Stats returns current delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Published:    d.published.Load(),
		Retried:      d.retried.Load(),
		DeadLettered: d.deadLettered.Load(),
		Dropped:      d.dropped.Load(),
	}
}

// Close stops intake, drains queued events through the normal retry
// schedule, and waits for in-flight deliveries. Idempotent.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for event := range d.events {
		d.deliver(event)
	}
}

// deliver publishes one event with bounded exponential backoff, routing to
// the dead-letter stream after the attempt budget is spent.
func (d *Dispatcher) deliver(event models.ClipEvent) {
	var lastErr error

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PublishTimeout)
		err := d.publisher.Publish(ctx, d.cfg.EventStream, event)
		cancel()

		if err == nil {
			d.published.Add(1)
			d.log.Debug("event published",
				"event_id", event.EventID,
				"content_id", event.ContentID,
				"attempt", attempt,
			)
			return
		}

		lastErr = err
		d.log.Warn("event publish failed",
			"event_id", event.EventID,
			"content_id", event.ContentID,
			"attempt", attempt,
			"max_attempts", d.cfg.MaxAttempts,
			"error", err,
		)

		if attempt == d.cfg.MaxAttempts {
			break
		}

		d.retried.Add(1)
		time.Sleep(backoff(d.cfg.BackoffBase, d.cfg.BackoffCap, attempt))
	}

	d.deadLetter(event, lastErr)
}

func (d *Dispatcher) deadLetter(event models.ClipEvent, cause error) {
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}

	letter := models.DeadLetter{
		Event:       event,
		ErrorReason: reason,
		Attempts:    d.cfg.MaxAttempts,
		FailedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PublishTimeout)
	defer cancel()

	if err := d.publisher.PublishDeadLetter(ctx, d.cfg.DLQStream, letter); err != nil {
		// The event is lost until a reconciliation sweep; count it so the
		// loss is at least observable.
		d.dropped.Add(1)
		d.log.Error("dead-letter publish failed, event dropped",
			"event_id", event.EventID,
			"content_id", event.ContentID,
			"error", err,
			"original_error", reason,
		)
		return
	}

	d.deadLettered.Add(1)
	d.log.Error("event dead-lettered after retry exhaustion",
		"event_id", event.EventID,
		"content_id", event.ContentID,
		"attempts", d.cfg.MaxAttempts,
		"error", reason,
	)
}

// backoff computes base * 2^(attempt-1) capped at cap.
func backoff(base, cap time.Duration, attempt int) time.Duration {
	duration := base << uint(attempt-1)
	if duration > cap || duration <= 0 {
		return cap
	}
	return duration
}

// Replayer is implemented by publishers whose dead-letter sink can be read
// back for replay.
type Replayer interface {
	ReadDeadLetters(ctx context.Context, stream string, max int64) ([]StoredDeadLetter, error)
	DeleteDeadLetter(ctx context.Context, stream, id string) error
}

// StoredDeadLetter is a dead letter plus its position in the DLQ stream.
type StoredDeadLetter struct {
	ID     string
	Letter models.DeadLetter
}

// ReplayDLQ re-publishes dead-lettered events to the primary stream,
// removing each from the DLQ on success. Returns the number replayed.
func (d *Dispatcher) ReplayDLQ(ctx context.Context, max int64) (int, error) {
	replayer, ok := d.publisher.(Replayer)
	if !ok {
		return 0, fmt.Errorf("publisher does not support dead-letter replay")
	}

	letters, err := replayer.ReadDeadLetters(ctx, d.cfg.DLQStream, max)
	if err != nil {
		return 0, fmt.Errorf("read dead letters: %w", err)
	}

	replayed := 0
	for _, stored := range letters {
		if err := d.publisher.Publish(ctx, d.cfg.EventStream, stored.Letter.Event); err != nil {
			d.log.Warn("dead-letter replay publish failed",
				"event_id", stored.Letter.Event.EventID,
				"error", err,
			)
			continue
		}

		if err := replayer.DeleteDeadLetter(ctx, d.cfg.DLQStream, stored.ID); err != nil {
			d.log.Warn("failed to remove replayed dead letter",
				"dlq_id", stored.ID,
				"error", err,
			)
		}

		d.published.Add(1)
		replayed++
	}

	d.log.Info("dead-letter replay complete", "replayed", replayed, "scanned", len(letters))
	return replayed, nil
}
