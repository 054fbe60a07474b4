package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/db"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

// SearchRepository is the read-only query surface over the store. Results
// are always scoped to the caller's saved content; ranking is save recency
// first, text relevance second, tag confidence as the tie-break.
type SearchRepository struct {
	db *db.DB
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(database *db.DB) *SearchRepository {
	return &SearchRepository{db: database}
}

// SearchParams carries a validated search request.
type SearchParams struct {
	Query  string
	Tags   []string
	Limit  int
	Offset int
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Content models.Content  `json:"content"`
	SavedAt time.Time       `json:"saved_at"`
	Tags    []models.TagRef `json:"tags"`
	Rank    float64         `json:"-"`
}

func unmarshalTags(raw []byte, tags *[]models.TagRef) error {
	if len(raw) == 0 {
		*tags = []models.TagRef{}
		return nil
	}
	if err := json.Unmarshal(raw, tags); err != nil {
		return fmt.Errorf("decode result tags: %w", err)
	}
	return nil
}

// Search runs a full-text query over title/description/transcript/summary.
// The generated search document coalesces missing enrichment text to empty
// strings, so a not-yet-enriched item still matches on title alone. The
// saved_content join binds every result to the caller's tenant within the
// statement.
func (r *SearchRepository) Search(ctx context.Context, scope tenant.Scope, params SearchParams) ([]*SearchResult, int64, error) {
	if !scope.Valid() {
		return nil, 0, clerr.Invalidf("unbound tenant scope")
	}
	if params.Query == "" && len(params.Tags) == 0 {
		return nil, 0, clerr.Invalidf("at least one search criteria (query or tags) is required")
	}

	where := `sc.owner_id = $1`
	args := []any{scope.TenantID()}

	rankExpr := `0::float8`
	if params.Query != "" {
		args = append(args, params.Query)
		where += fmt.Sprintf(` AND c.search_doc @@ websearch_to_tsquery('english', $%d)`, len(args))
		rankExpr = fmt.Sprintf(`ts_rank(c.search_doc, websearch_to_tsquery('english', $%d))`, len(args))
	}

	if len(params.Tags) > 0 {
		args = append(args, params.Tags)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM content_tag ct
			JOIN tag t ON t.tag_id = ct.tag_id
			WHERE ct.content_id = c.content_id AND t.name = ANY($%d)
		)`, len(args))
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM saved_content sc
		JOIN content c ON c.content_id = sc.content_id
		WHERE %s
	`, where)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count search results", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT c.content_id, c.source_url, c.media_kind, c.title, c.description,
		       c.transcript, c.summary, c.status, c.created_at, c.updated_at,
		       sc.saved_at, %s AS rank,
		       COALESCE((
		           SELECT json_agg(json_build_object(
		               'tag_id', t.tag_id, 'name', t.name, 'confidence', ct.confidence)
		               ORDER BY ct.confidence DESC)
		           FROM content_tag ct
		           JOIN tag t ON t.tag_id = ct.tag_id
		           WHERE ct.content_id = c.content_id
		       ), '[]') AS tags,
		       COALESCE((SELECT MAX(ct.confidence) FROM content_tag ct
		                 WHERE ct.content_id = c.content_id), 0) AS top_confidence
		FROM saved_content sc
		JOIN content c ON c.content_id = sc.content_id
		WHERE %s
		ORDER BY sc.saved_at DESC, rank DESC, top_confidence DESC
		LIMIT $%d OFFSET $%d
	`, rankExpr, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("search content", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		res := &SearchResult{}
		var tagsRaw []byte
		var topConfidence float64
		err := rows.Scan(
			&res.Content.ContentID,
			&res.Content.SourceURL,
			&res.Content.MediaKind,
			&res.Content.Title,
			&res.Content.Description,
			&res.Content.Transcript,
			&res.Content.Summary,
			&res.Content.Status,
			&res.Content.CreatedAt,
			&res.Content.UpdatedAt,
			&res.SavedAt,
			&res.Rank,
			&tagsRaw,
			&topConfidence,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan search result: %w", err)
		}
		if err := unmarshalTags(tagsRaw, &res.Tags); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, total, nil
}
