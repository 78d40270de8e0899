// Package purpose generates purpose and follow-up suggestions for a
// merged capture. It runs after the provider fan-out so it can reason over
// the combined context, and it only ever appends: user-set purposes are
// never removed or rewritten.
//
// Suggester is the narrow contract an LLM-backed implementation fulfils;
// Heuristic is the offline implementation used when no model is
// configured, so the pipeline degrades gracefully instead of failing.
package purpose

import (
	"context"
	"strings"

	"satchel/internal/enrich"
)

// Input is the merged context handed to the suggester.
type Input struct {
	CaptureType string
	URL         string
	Title       string
	Description string
	Categories  []string
	StyleTags   []string
	// ExistingPurposes are user-set; implementations must not contradict
	// or duplicate them.
	ExistingPurposes []string
	HasLocation      bool
}

// Suggestion is the suggester's output.
type Suggestion struct {
	// Purposes are appended to the record's purpose set.
	Purposes []string
	// Questions are open follow-ups surfaced to the user.
	Questions []string
	// Summary is a one-line synthesis, used only when no higher-priority
	// summary exists.
	Summary string
}

// Suggester is the AI purpose/summary contract.
type Suggester interface {
	Suggest(ctx context.Context, input Input) (Suggestion, error)
}

// Heuristic is a deterministic, offline suggester driven by capture type
// and category keywords.
type Heuristic struct{}

var _ Suggester = Heuristic{}

var categoryPurposes = map[string]string{
	"restaurant": "visit later",
	"cafe":       "visit later",
	"food":       "try this",
	"recipe":     "cook this",
	"shopping":   "consider buying",
	"product":    "consider buying",
	"travel":     "plan a trip",
	"hotel":      "plan a trip",
	"article":    "read later",
	"news":       "read later",
	"event":      "add to calendar",
}

// Suggest derives purposes from the capture type and categories. It never
// fails; an empty suggestion is a valid outcome.
func (Heuristic) Suggest(_ context.Context, input Input) (Suggestion, error) {
	var suggestion Suggestion
	seen := make(map[string]struct{}, len(input.ExistingPurposes))
	for _, existing := range input.ExistingPurposes {
		seen[strings.ToLower(strings.TrimSpace(existing))] = struct{}{}
	}

	add := func(purpose string) {
		key := strings.ToLower(purpose)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		suggestion.Purposes = append(suggestion.Purposes, purpose)
	}

	for _, category := range input.Categories {
		if purpose, ok := categoryPurposes[strings.ToLower(strings.TrimSpace(category))]; ok {
			add(purpose)
		}
	}

	switch strings.ToLower(input.CaptureType) {
	case "web":
		if len(suggestion.Purposes) == 0 {
			add("read later")
		}
	case "document":
		add("file this document")
	case "image", "video":
		if input.HasLocation {
			add("remember this place")
		}
	}

	if input.Title != "" && input.Description != "" {
		suggestion.Summary = input.Title + ": " + firstSentence(input.Description)
	}

	if input.URL != "" && input.Title == "" {
		suggestion.Questions = append(suggestion.Questions, "What is this link about?")
	}
	return suggestion, nil
}

// DataFromSuggestion converts a suggestion into a mergeable Data layer.
func DataFromSuggestion(suggestion Suggestion) enrich.Data {
	return enrich.Data{
		Purposes: suggestion.Purposes,
		Summary:  suggestion.Summary,
	}
}

func firstSentence(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.Index(trimmed, sep); idx > 0 {
			return trimmed[:idx+1]
		}
	}
	const maxLen = 140
	if len(trimmed) > maxLen {
		return trimmed[:maxLen] + "…"
	}
	return trimmed
}
