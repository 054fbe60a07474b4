// Package rules evaluates smart-collection membership rules. A rule is a
// CEL expression over a content item's attributes, for example:
//
//	content.media_kind == "video" && "golang" in tags
//	saved.favorite && content.title.contains("interview")
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/models"
)

// Evaluator compiles and evaluates collection rules, caching compiled
// programs by expression.
type Evaluator struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new rule evaluator with caching
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]cel.Program),
	}
}

// Validate compiles an expression without evaluating it, so malformed rules
// are rejected at collection create/update time.
func (e *Evaluator) Validate(expr string) error {
	if expr == "" {
		return clerr.Invalidf("empty rule expression")
	}
	_, err := e.program(expr)
	return err
}

// Matches reports whether a content view satisfies the rule.
func (e *Evaluator) Matches(expr string, view *models.ContentView) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	tags := make([]string, 0, len(view.Tags))
	for _, tag := range view.Tags {
		tags = append(tags, tag.Name)
	}

	saved := map[string]interface{}{
		"favorite": false,
		"notes":    "",
	}
	if view.Saved != nil {
		saved["favorite"] = view.Saved.Favorite
		saved["notes"] = view.Saved.Notes
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"content": map[string]interface{}{
			"media_kind":  string(view.Content.MediaKind),
			"title":       view.Content.Title,
			"description": view.Content.Description,
			"summary":     view.Content.Summary,
			"status":      string(view.Content.Status),
			"source_url":  view.Content.SourceURL,
		},
		"tags":  tags,
		"saved": saved,
	})
	if err != nil {
		return false, fmt.Errorf("rule evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, clerr.Invalidf("rule did not return boolean, got %T", out.Value())
	}

	return result, nil
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, exists := e.cache[expr]
	e.mu.RUnlock()

	if exists {
		return prg, nil
	}

	prg, err := compile(expr)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()

	return prg, nil
}

func compile(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("content", cel.DynType),
		cel.Variable("tags", cel.DynType),
		cel.Variable("saved", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, clerr.Invalidf("rule compilation failed: %v", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule program: %w", err)
	}

	return prg, nil
}
