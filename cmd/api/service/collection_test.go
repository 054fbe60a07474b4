package service

import (
	"encoding/json"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/clipvault/clipvault/common/models"
)

// mergeInto mirrors the Update flow: render the current document, merge the
// patch, decode, apply.
func mergeInto(t *testing.T, coll *models.Collection, patch string) {
	t.Helper()

	current, err := json.Marshal(models.CollectionPatch{
		Name:        &coll.Name,
		Description: &coll.Description,
		Rule:        &coll.Rule,
		IsPublic:    &coll.IsPublic,
		ColorHex:    &coll.ColorHex,
	})
	if err != nil {
		t.Fatalf("marshal current: %v", err)
	}

	merged, err := jsonpatch.MergePatch(current, []byte(patch))
	if err != nil {
		t.Fatalf("MergePatch: %v", err)
	}

	var doc models.CollectionPatch
	if err := json.Unmarshal(merged, &doc); err != nil {
		t.Fatalf("unmarshal merged: %v", err)
	}

	applyPatch(coll, doc)
}

func TestCollectionMergePatch_PartialUpdate(t *testing.T) {
	coll := &models.Collection{
		Name:        "reading list",
		Description: "articles to read",
		IsPublic:    false,
		ColorHex:    "#ff0000",
	}

	mergeInto(t, coll, `{"name": "watch list", "is_public": true}`)

	if coll.Name != "watch list" {
		t.Errorf("Name = %q", coll.Name)
	}
	if !coll.IsPublic {
		t.Error("IsPublic should be true")
	}
	// Absent fields stay untouched.
	if coll.Description != "articles to read" {
		t.Errorf("Description = %q", coll.Description)
	}
	if coll.ColorHex != "#ff0000" {
		t.Errorf("ColorHex = %q", coll.ColorHex)
	}
}

func TestCollectionMergePatch_NullResets(t *testing.T) {
	coll := &models.Collection{
		Name:        "reading list",
		Description: "articles to read",
		ColorHex:    "#ff0000",
	}

	mergeInto(t, coll, `{"description": null, "color_hex": null}`)

	if coll.Description != "" {
		t.Errorf("Description = %q, want cleared", coll.Description)
	}
	if coll.ColorHex != "" {
		t.Errorf("ColorHex = %q, want cleared", coll.ColorHex)
	}
	if coll.Name != "reading list" {
		t.Errorf("Name = %q, want untouched", coll.Name)
	}
}

func TestCollectionMergePatch_EmptyPatchIsNoop(t *testing.T) {
	coll := &models.Collection{
		Name:        "reading list",
		Description: "articles to read",
		IsPublic:    true,
		Rule:        `"golang" in tags`,
		ColorHex:    "#00ff00",
	}
	before := *coll

	mergeInto(t, coll, `{}`)

	if *coll != before {
		t.Errorf("empty patch changed the collection: %+v", coll)
	}
}
