package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentStatus tracks where a canonical record is in its enrichment
// lifecycle.
type ContentStatus string

const (
	ContentStatusNew      ContentStatus = "new"
	ContentStatusEnriched ContentStatus = "enriched"
	ContentStatusFailed   ContentStatus = "failed"
)

// MediaKind classifies the external source reference.
type MediaKind string

const (
	MediaKindLink    MediaKind = "link"
	MediaKindVideo   MediaKind = "video"
	MediaKindAudio   MediaKind = "audio"
	MediaKindArticle MediaKind = "article"
)

// Content is the canonical, deduplicated record of an external source
// reference. There is at most one row per distinct source_url regardless of
// how many tenants save it.
// Maps to: content table
type Content struct {
	ContentID   uuid.UUID      `db:"content_id" json:"content_id"`
	SourceURL   string         `db:"source_url" json:"source_url"`
	MediaKind   MediaKind      `db:"media_kind" json:"media_kind"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Transcript  string         `db:"transcript" json:"transcript"`
	Summary     string         `db:"summary" json:"summary"`
	Status      ContentStatus  `db:"status" json:"status"`
	Metadata    map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// SavedContent is a tenant's private association to a piece of content.
// Unique per (owner_id, content_id); owned exclusively by that tenant.
// Maps to: saved_content table
type SavedContent struct {
	OwnerID   string    `db:"owner_id" json:"-"`
	ContentID uuid.UUID `db:"content_id" json:"content_id"`
	Notes     string    `db:"notes" json:"notes"`
	Favorite  bool      `db:"favorite" json:"favorite"`
	SavedAt   time.Time `db:"saved_at" json:"saved_at"`
}

// TagOrigin records whether a catalog tag came from the system pipeline or
// a user.
type TagOrigin string

const (
	TagOriginSystem TagOrigin = "system"
	TagOriginUser   TagOrigin = "user"
)

// Tag is a global catalog entry shared across tenants. The usage counter is
// a derived, eventually-consistent aggregate.
// Maps to: tag table
type Tag struct {
	TagID      uuid.UUID `db:"tag_id" json:"tag_id"`
	Name       string    `db:"name" json:"name"`
	UsageCount int64     `db:"usage_count" json:"usage_count"`
	Origin     TagOrigin `db:"origin" json:"origin"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TagProvenance records how a content/tag link was derived.
type TagProvenance string

const (
	ProvenanceSystem TagProvenance = "system"
	ProvenanceUser   TagProvenance = "user"
	ProvenanceAI     TagProvenance = "ai"
)

// TagRef is the compact tag shape embedded in content views. The backing
// content_tag rows are globally readable and written only by the privileged
// enrichment path; TagRef is the only shape that leaves the store.
type TagRef struct {
	TagID      uuid.UUID `json:"tag_id"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
}

// ContentView is content plus the requesting tenant's private association.
// Saved is nil when the caller never saved the item; other tenants' saved
// rows are never present.
type ContentView struct {
	Content Content       `json:"content"`
	Saved   *SavedContent `json:"saved,omitempty"`
	Tags    []TagRef      `json:"tags"`
}
