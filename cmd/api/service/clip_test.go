package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

// fakeContentStore simulates the dedup semantics of the real store: one
// canonical row per URL, one saved row per (tenant, content).
type fakeContentStore struct {
	byURL map[string]uuid.UUID
	saved map[string]bool // tenantID + contentID
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		byURL: make(map[string]uuid.UUID),
		saved: make(map[string]bool),
	}
}

func (f *fakeContentStore) Ingest(ctx context.Context, sourceURL string, mediaKind models.MediaKind) (uuid.UUID, bool, error) {
	if id, ok := f.byURL[sourceURL]; ok {
		return id, false, nil
	}
	id := uuid.New()
	f.byURL[sourceURL] = id
	return id, true, nil
}

func (f *fakeContentStore) SaveForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID, notes string) (*models.SavedContent, bool, error) {
	key := scope.TenantID() + contentID.String()
	isNew := !f.saved[key]
	f.saved[key] = true
	return &models.SavedContent{
		OwnerID:   scope.TenantID(),
		ContentID: contentID,
		Notes:     notes,
		SavedAt:   time.Now(),
	}, isNew, nil
}

func (f *fakeContentStore) UnsaveForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) error {
	key := scope.TenantID() + contentID.String()
	if !f.saved[key] {
		return clerr.NotFoundf("content %s", contentID)
	}
	delete(f.saved, key)
	return nil
}

func (f *fakeContentStore) GetForTenant(ctx context.Context, scope tenant.Scope, contentID uuid.UUID) (*models.ContentView, error) {
	return &models.ContentView{Content: models.Content{ContentID: contentID}}, nil
}

func (f *fakeContentStore) ListSavedForTenant(ctx context.Context, scope tenant.Scope, limit, offset int) ([]*models.ContentView, error) {
	return nil, nil
}

type fakeJobSeeder struct {
	seeded []uuid.UUID
	err    error
}

func (f *fakeJobSeeder) CreateForContent(ctx context.Context, sys tenant.SystemScope, contentID uuid.UUID, types []models.JobType, maxAttempts, priority int) error {
	if f.err != nil {
		return f.err
	}
	f.seeded = append(f.seeded, contentID)
	return nil
}

type fakeNotifier struct {
	events []uuid.UUID
}

func (f *fakeNotifier) NotifyCreated(contentID uuid.UUID, sourceURL, tenantID string) {
	f.events = append(f.events, contentID)
}

func newTestClipService(store *fakeContentStore, jobs *fakeJobSeeder, events *fakeNotifier) *ClipService {
	cfg := &config.Config{
		Jobs: config.JobsConfig{
			Types:       []string{"transcription", "summarization", "tagging"},
			MaxAttempts: 3,
		},
		Search: config.SearchConfig{PageSize: 40, MaxPageSize: 100},
	}
	return NewClipService(store, jobs, events, cfg, logger.New("error", "json"))
}

func mustScope(t *testing.T, id string) tenant.Scope {
	t.Helper()
	scope, err := tenant.NewScope(id)
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	return scope
}

func TestClipService_SaveCreatesAndNotifiesOnce(t *testing.T) {
	store := newFakeContentStore()
	jobs := &fakeJobSeeder{}
	events := &fakeNotifier{}
	svc := newTestClipService(store, jobs, events)

	result, err := svc.Save(context.Background(), mustScope(t, "alice"), SaveClipRequest{
		SourceURL: "https://example.com/talk",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !result.Created {
		t.Fatal("expected created=true on first save")
	}
	if len(events.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events.events))
	}
	if len(jobs.seeded) != 1 {
		t.Fatalf("expected job seeding, got %d", len(jobs.seeded))
	}
}

func TestClipService_SecondTenantReusesContent(t *testing.T) {
	store := newFakeContentStore()
	jobs := &fakeJobSeeder{}
	events := &fakeNotifier{}
	svc := newTestClipService(store, jobs, events)

	first, err := svc.Save(context.Background(), mustScope(t, "alice"), SaveClipRequest{
		SourceURL: "https://example.com/talk",
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second, err := svc.Save(context.Background(), mustScope(t, "bob"), SaveClipRequest{
		SourceURL: "https://example.com/talk",
	})
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	if second.Created {
		t.Fatal("second tenant must not create a new canonical row")
	}
	if first.ContentID != second.ContentID {
		t.Fatal("both tenants must share the canonical content id")
	}

	// Only the creating save emits the event.
	if len(events.events) != 1 {
		t.Fatalf("expected one event total, got %d", len(events.events))
	}
}

func TestClipService_RepeatSaveSignalsDuplicate(t *testing.T) {
	store := newFakeContentStore()
	svc := newTestClipService(store, &fakeJobSeeder{}, &fakeNotifier{})
	scope := mustScope(t, "alice")

	first, err := svc.Save(context.Background(), scope, SaveClipRequest{
		SourceURL: "https://example.com/talk",
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	result, err := svc.Save(context.Background(), scope, SaveClipRequest{
		SourceURL: "https://example.com/talk",
	})
	if !errors.Is(err, clerr.ErrDuplicateSave) {
		t.Fatalf("expected ErrDuplicateSave, got %v", err)
	}
	if !result.Duplicate {
		t.Fatal("expected duplicate flag set")
	}
	if result.ContentID != first.ContentID {
		t.Fatal("duplicate result must carry the existing content id")
	}
}

func TestClipService_RejectsBadURLs(t *testing.T) {
	svc := newTestClipService(newFakeContentStore(), &fakeJobSeeder{}, &fakeNotifier{})
	scope := mustScope(t, "alice")

	for _, raw := range []string{
		"ftp://example.com/file",
		"not a url at all\x7f",
		"https://",
		"/relative/path",
	} {
		_, err := svc.Save(context.Background(), scope, SaveClipRequest{SourceURL: raw})
		if !errors.Is(err, clerr.ErrInvalidInput) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidInput", raw, err)
		}
	}
}

func TestClipService_JobSeedingFailureDoesNotFailSave(t *testing.T) {
	store := newFakeContentStore()
	jobs := &fakeJobSeeder{err: errors.New("db down")}
	events := &fakeNotifier{}
	svc := newTestClipService(store, jobs, events)

	result, err := svc.Save(context.Background(), mustScope(t, "alice"), SaveClipRequest{
		SourceURL: "https://example.com/talk",
	})
	if err != nil {
		t.Fatalf("save must survive job seeding failure, got %v", err)
	}
	if !result.Created {
		t.Fatal("expected created=true")
	}
	// The event still went out; the enricher re-seeds jobs idempotently.
	if len(events.events) != 1 {
		t.Fatalf("expected event despite seeding failure, got %d", len(events.events))
	}
}
