package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a tenant-owned named grouping of content. Smart collections
// carry a rule expression instead of curated membership; public collections
// expose read-only membership to every tenant.
// Maps to: collection table
type Collection struct {
	CollectionID uuid.UUID `db:"collection_id" json:"collection_id"`
	OwnerID      string    `db:"owner_id" json:"-"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	IsSmart      bool      `db:"is_smart" json:"is_smart"`
	Rule         string    `db:"rule" json:"rule,omitempty"`
	IsPublic     bool      `db:"is_public" json:"is_public"`
	ColorHex     string    `db:"color_hex" json:"color_hex,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// ContentCount is populated by list queries when requested.
	ContentCount int64 `db:"content_count" json:"content_count,omitempty"`
}

// CollectionContent is a curated membership row with explicit ordering and
// an audit of who added it.
// Maps to: collection_content table
type CollectionContent struct {
	CollectionID uuid.UUID `db:"collection_id" json:"collection_id"`
	ContentID    uuid.UUID `db:"content_id" json:"content_id"`
	Position     int       `db:"position" json:"position"`
	AddedBy      string    `db:"added_by" json:"added_by"`
	AddedAt      time.Time `db:"added_at" json:"added_at"`
}

// CollectionPatch is the mutable-fields document merge-patched by
// collection updates. Pointer fields distinguish "absent" from zero values.
type CollectionPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Rule        *string `json:"rule,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
	ColorHex    *string `json:"color_hex,omitempty"`
}
