package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
)

// fakePublisher records publishes and can be programmed to fail the first N
// attempts per event.
type fakePublisher struct {
	mu          sync.Mutex
	failFirst   int
	failDLQ     bool
	attempts    map[uuid.UUID]int
	published   []models.ClipEvent
	deadLetters []models.DeadLetter
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{attempts: make(map[uuid.UUID]int)}
}

func (f *fakePublisher) Publish(ctx context.Context, stream string, event models.ClipEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts[event.EventID]++
	if f.attempts[event.EventID] <= f.failFirst {
		return errors.New("stream unavailable")
	}

	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) PublishDeadLetter(ctx context.Context, stream string, letter models.DeadLetter) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDLQ {
		return errors.New("dlq unavailable")
	}

	f.deadLetters = append(f.deadLetters, letter)
	return nil
}

func (f *fakePublisher) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakePublisher) deadLetterCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deadLetters)
}

func testConfig() config.DispatcherConfig {
	return config.DispatcherConfig{
		EventStream:    "clip-events",
		DLQStream:      "clip-events-dlq",
		BufferSize:     16,
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
		BackoffCap:     5 * time.Millisecond,
		PublishTimeout: time.Second,
	}
}

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

func TestDispatcher_PublishesEvent(t *testing.T) {
	pub := newFakePublisher()
	d := New(pub, testConfig(), testLogger())

	d.NotifyCreated(uuid.New(), "https://example.com/a", "tenant-1")

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := pub.publishedCount(); got != 1 {
		t.Fatalf("expected 1 published event, got %d", got)
	}

	stats := d.Stats()
	if stats.Published != 1 || stats.Retried != 0 || stats.DeadLettered != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	pub := newFakePublisher()
	pub.failFirst = 2
	d := New(pub, testConfig(), testLogger())

	d.NotifyCreated(uuid.New(), "https://example.com/b", "tenant-1")
	d.Close()

	if got := pub.publishedCount(); got != 1 {
		t.Fatalf("expected event delivered after retries, got %d published", got)
	}

	stats := d.Stats()
	if stats.Published != 1 {
		t.Fatalf("expected 1 published, got %d", stats.Published)
	}
	if stats.Retried != 2 {
		t.Fatalf("expected 2 retries, got %d", stats.Retried)
	}
	if stats.DeadLettered != 0 {
		t.Fatalf("expected no dead letters, got %d", stats.DeadLettered)
	}
}

func TestDispatcher_DeadLettersAfterExhaustion(t *testing.T) {
	pub := newFakePublisher()
	pub.failFirst = 100
	d := New(pub, testConfig(), testLogger())

	contentID := uuid.New()
	d.NotifyCreated(contentID, "https://example.com/c", "tenant-1")
	d.Close()

	if got := pub.publishedCount(); got != 0 {
		t.Fatalf("expected no published events, got %d", got)
	}
	if got := pub.deadLetterCount(); got != 1 {
		t.Fatalf("expected 1 dead letter, got %d", got)
	}

	pub.mu.Lock()
	letter := pub.deadLetters[0]
	pub.mu.Unlock()

	// The dead letter must retain the full payload for replay.
	if letter.Event.ContentID != contentID {
		t.Fatalf("dead letter lost content id: %+v", letter)
	}
	if letter.Event.SourceURL != "https://example.com/c" {
		t.Fatalf("dead letter lost source url: %+v", letter)
	}
	if letter.ErrorReason == "" || letter.Attempts != 3 {
		t.Fatalf("dead letter missing failure metadata: %+v", letter)
	}

	if d.Stats().DeadLettered != 1 {
		t.Fatalf("expected dead-lettered counter bump, got %+v", d.Stats())
	}
}

func TestDispatcher_CountsDropWhenDLQFails(t *testing.T) {
	pub := newFakePublisher()
	pub.failFirst = 100
	pub.failDLQ = true
	d := New(pub, testConfig(), testLogger())

	d.NotifyCreated(uuid.New(), "https://example.com/d", "tenant-1")
	d.Close()

	stats := d.Stats()
	if stats.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %+v", stats)
	}
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	pub := newFakePublisher()
	cfg := testConfig()
	cfg.BufferSize = 1
	d := New(pub, cfg, testLogger())

	// Flood well past the buffer; NotifyCreated must return immediately.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.NotifyCreated(uuid.New(), "https://example.com/e", "tenant-1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyCreated blocked on a full buffer")
	}

	d.Close()

	if got := pub.publishedCount(); got != 50 {
		t.Fatalf("expected all 50 events delivered, got %d", got)
	}
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	pub := newFakePublisher()
	d := New(pub, testConfig(), testLogger())

	for i := 0; i < 10; i++ {
		d.NotifyCreated(uuid.New(), "https://example.com/f", "tenant-1")
	}
	d.Close()

	if got := pub.publishedCount(); got != 10 {
		t.Fatalf("expected Close to drain all 10 events, got %d", got)
	}
}

func TestDispatcher_NotifyAfterCloseDropsEvent(t *testing.T) {
	pub := newFakePublisher()
	d := New(pub, testConfig(), testLogger())

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A save racing with shutdown must neither panic nor block; the event
	// is counted as dropped so the loss stays observable.
	d.NotifyCreated(uuid.New(), "https://example.com/h", "tenant-1")

	if got := pub.publishedCount(); got != 0 {
		t.Fatalf("expected no publishes after close, got %d", got)
	}
	if got := d.Stats().Dropped; got != 1 {
		t.Fatalf("expected 1 dropped, got %d", got)
	}
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := New(newFakePublisher(), testConfig(), testLogger())

	if err := d.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestDispatcher_AtLeastOnceUnderFlap(t *testing.T) {
	// Every event fails once then succeeds; none may be lost.
	pub := newFakePublisher()
	pub.failFirst = 1
	d := New(pub, testConfig(), testLogger())

	const n = 20
	for i := 0; i < n; i++ {
		d.NotifyCreated(uuid.New(), "https://example.com/g", "tenant-1")
	}
	d.Close()

	if got := pub.publishedCount() + pub.deadLetterCount(); got != n {
		t.Fatalf("lost events: published+dlq = %d, want %d", got, n)
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	cap := time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{20, time.Second},
	}

	for _, tc := range cases {
		if got := backoff(base, cap, tc.attempt); got != tc.want {
			t.Errorf("backoff(attempt=%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
