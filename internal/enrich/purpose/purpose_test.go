package purpose_test

import (
	"context"
	"reflect"
	"testing"

	"satchel/internal/enrich/purpose"
)

func TestHeuristicSuggestsFromCategories(t *testing.T) {
	suggestion, err := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{
		CaptureType: "web",
		Title:       "Blue Bottle",
		Categories:  []string{"Cafe", "article"},
	})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := []string{"visit later", "read later"}
	if !reflect.DeepEqual(suggestion.Purposes, want) {
		t.Fatalf("purposes = %v, want %v", suggestion.Purposes, want)
	}
}

func TestHeuristicNeverDuplicatesExistingPurposes(t *testing.T) {
	suggestion, err := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{
		CaptureType:      "web",
		Title:            "Some Article",
		Categories:       []string{"article"},
		ExistingPurposes: []string{"Read Later"},
	})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	for _, p := range suggestion.Purposes {
		if p == "read later" {
			t.Fatal("suggester must not duplicate an existing purpose")
		}
	}
}

func TestHeuristicTypeDefaults(t *testing.T) {
	web, _ := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{CaptureType: "web", Title: "t"})
	if !reflect.DeepEqual(web.Purposes, []string{"read later"}) {
		t.Fatalf("web default = %v", web.Purposes)
	}

	doc, _ := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{CaptureType: "document"})
	if !reflect.DeepEqual(doc.Purposes, []string{"file this document"}) {
		t.Fatalf("document default = %v", doc.Purposes)
	}

	located, _ := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{CaptureType: "image", HasLocation: true})
	if !reflect.DeepEqual(located.Purposes, []string{"remember this place"}) {
		t.Fatalf("located image default = %v", located.Purposes)
	}

	plain, _ := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{CaptureType: "image"})
	if len(plain.Purposes) != 0 {
		t.Fatalf("image without location should suggest nothing, got %v", plain.Purposes)
	}
}

func TestHeuristicSummaryAndQuestions(t *testing.T) {
	withBoth, _ := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{
		CaptureType: "web",
		Title:       "Tartine",
		Description: "A bakery in the Mission. Famous for bread.",
	})
	if withBoth.Summary != "Tartine: A bakery in the Mission." {
		t.Fatalf("unexpected summary %q", withBoth.Summary)
	}

	untitled, _ := purpose.Heuristic{}.Suggest(context.Background(), purpose.Input{
		CaptureType: "web",
		URL:         "https://example.com/mystery",
	})
	if len(untitled.Questions) == 0 {
		t.Fatal("expected a follow-up question for an untitled link")
	}
}

func TestDataFromSuggestion(t *testing.T) {
	data := purpose.DataFromSuggestion(purpose.Suggestion{
		Purposes: []string{"read later"},
		Summary:  "short",
	})
	if data.Summary != "short" || len(data.Purposes) != 1 {
		t.Fatalf("unexpected data: %+v", data)
	}
}
