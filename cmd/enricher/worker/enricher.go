package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/clipvault/clipvault/common/models"
)

// TagSuggestion is a derived tag with the pipeline's confidence in it.
type TagSuggestion struct {
	Name       string
	Confidence float64
}

// Enrichment is what an enricher derives for one job.
type Enrichment struct {
	Title      string
	Transcript string
	Summary    string
	Tags       []TagSuggestion
	Result     map[string]any
}

// Enricher performs one enrichment job against a content row. Real
// implementations call out to external transcription and summarization
// collaborators; the harness only cares about the returned enrichment.
type Enricher interface {
	Enrich(ctx context.Context, job *models.EnrichmentJob, content *models.Content) (*Enrichment, error)
}

// StubEnricher derives placeholder enrichment from the source reference
// itself. It exists so the pipeline runs end to end without external
// collaborators wired in.
type StubEnricher struct{}

// NewStubEnricher creates a stub enricher
func NewStubEnricher() *StubEnricher {
	return &StubEnricher{}
}

// Enrich produces deterministic placeholder output per job type.
func (e *StubEnricher) Enrich(ctx context.Context, job *models.EnrichmentJob, content *models.Content) (*Enrichment, error) {
	switch job.JobType {
	case models.JobTypeTranscription:
		return &Enrichment{
			Transcript: fmt.Sprintf("transcript pending for %s", content.SourceURL),
			Result:     map[string]any{"source": "stub"},
		}, nil

	case models.JobTypeSummarization:
		return &Enrichment{
			Summary: fmt.Sprintf("summary pending for %s", content.SourceURL),
			Result:  map[string]any{"source": "stub"},
		}, nil

	case models.JobTypeTagging:
		tags := deriveTags(content)
		return &Enrichment{
			Tags:   tags,
			Result: map[string]any{"source": "stub", "tag_count": len(tags)},
		}, nil

	default:
		return nil, fmt.Errorf("unknown job type %q", job.JobType)
	}
}

// deriveTags produces tags from the source host and media kind.
func deriveTags(content *models.Content) []TagSuggestion {
	tags := []TagSuggestion{
		{Name: string(content.MediaKind), Confidence: 1.0},
	}

	if parsed, err := url.Parse(content.SourceURL); err == nil && parsed.Host != "" {
		host := strings.TrimPrefix(parsed.Host, "www.")
		tags = append(tags, TagSuggestion{Name: host, Confidence: 0.8})
	}

	return tags
}
