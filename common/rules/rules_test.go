package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/models"
)

func videoView() *models.ContentView {
	return &models.ContentView{
		Content: models.Content{
			MediaKind:   models.MediaKindVideo,
			Title:       "Go concurrency interview",
			Description: "channels and goroutines",
			Status:      models.ContentStatusEnriched,
			SourceURL:   "https://example.com/talk",
		},
		Saved: &models.SavedContent{Favorite: true, Notes: "watch again"},
		Tags: []models.TagRef{
			{Name: "golang", Confidence: 0.9},
			{Name: "concurrency", Confidence: 0.7},
		},
	}
}

func TestEvaluator_Matches(t *testing.T) {
	e := NewEvaluator()

	cases := []struct {
		name string
		expr string
		want bool
	}{
		{"media kind", `content.media_kind == "video"`, true},
		{"media kind miss", `content.media_kind == "audio"`, false},
		{"tag membership", `"golang" in tags`, true},
		{"tag miss", `"rust" in tags`, false},
		{"favorite flag", `saved.favorite`, true},
		{"title contains", `content.title.contains("interview")`, true},
		{"compound", `content.media_kind == "video" && "golang" in tags`, true},
		{"compound miss", `content.media_kind == "video" && "rust" in tags`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Matches(tc.expr, videoView())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluator_UnsavedViewHasDefaults(t *testing.T) {
	e := NewEvaluator()

	view := videoView()
	view.Saved = nil

	got, err := e.Matches(`saved.favorite`, view)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluator_Validate(t *testing.T) {
	e := NewEvaluator()

	require.NoError(t, e.Validate(`"golang" in tags`))

	err := e.Validate(`content.media_kind ==`)
	assert.True(t, errors.Is(err, clerr.ErrInvalidInput), "compile failure should be invalid input, got %v", err)

	err = e.Validate("")
	assert.True(t, errors.Is(err, clerr.ErrInvalidInput))
}

func TestEvaluator_NonBooleanRule(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Matches(`content.title`, videoView())
	assert.True(t, errors.Is(err, clerr.ErrInvalidInput), "non-boolean result should be invalid input, got %v", err)
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	e := NewEvaluator()

	const expr = `"golang" in tags`
	_, err := e.Matches(expr, videoView())
	require.NoError(t, err)

	e.mu.RLock()
	_, cached := e.cache[expr]
	e.mu.RUnlock()
	assert.True(t, cached)
}
