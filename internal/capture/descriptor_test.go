package capture_test

import (
	"reflect"
	"testing"

	"satchel/internal/capture"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		input string
		want  capture.Type
		ok    bool
	}{
		{"web", capture.TypeWeb, true},
		{" Image ", capture.TypeImage, true},
		{"VIDEO", capture.TypeVideo, true},
		{"document", capture.TypeDocument, true},
		{"", "", false},
		{"webpage", "", false},
	}
	for _, tc := range cases {
		got, ok := capture.ParseType(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseType(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDescriptorValidate(t *testing.T) {
	valid := capture.Descriptor{ID: "cap-1", Type: capture.TypeWeb, URL: "https://example.com"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid descriptor, got %v", err)
	}

	missingID := capture.Descriptor{Type: capture.TypeImage}
	if err := missingID.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}

	webNoURL := capture.Descriptor{ID: "cap-2", Type: capture.TypeWeb}
	if err := webNoURL.Validate(); err == nil {
		t.Fatal("expected error for web capture without url")
	}

	badLocation := capture.Descriptor{ID: "cap-3", Type: capture.TypeImage, Location: "not-a-pair"}
	if err := badLocation.Validate(); err == nil {
		t.Fatal("expected error for malformed location")
	}
}

func TestDescriptorCoordinatesPrefersExplicitFields(t *testing.T) {
	lat, lon := 37.7955, -122.3937
	desc := capture.Descriptor{
		ID:        "cap-1",
		Type:      capture.TypeImage,
		Location:  "10.0,20.0",
		Latitude:  &lat,
		Longitude: &lon,
	}
	gotLat, gotLon, ok := desc.Coordinates()
	if !ok || gotLat != lat || gotLon != lon {
		t.Fatalf("Coordinates() = (%v, %v, %v), want explicit fields", gotLat, gotLon, ok)
	}

	textOnly := capture.Descriptor{ID: "cap-2", Type: capture.TypeImage, Location: "10.5, -20.25"}
	gotLat, gotLon, ok = textOnly.Coordinates()
	if !ok || gotLat != 10.5 || gotLon != -20.25 {
		t.Fatalf("Coordinates() = (%v, %v, %v), want parsed pair", gotLat, gotLon, ok)
	}
}

func TestParseLocationRejectsOutOfRange(t *testing.T) {
	if _, _, err := capture.ParseLocation("91,0"); err == nil {
		t.Fatal("expected error for latitude out of range")
	}
	if _, _, err := capture.ParseLocation("0,181"); err == nil {
		t.Fatal("expected error for longitude out of range")
	}
}

func TestMergeStringsUnionsCaseInsensitively(t *testing.T) {
	got := capture.MergeStrings([]string{"Cozy", "modern"}, []string{"cozy", "Bright", " "})
	want := []string{"Cozy", "modern", "Bright"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MergeStrings = %v, want %v", got, want)
	}
}

func TestNewItemGeneratesFreshEntryIDs(t *testing.T) {
	desc := capture.Descriptor{ID: "cap-1", Type: capture.TypeWeb, URL: "https://example.com"}
	first, err := capture.NewItem(capture.ActionSave, desc, capture.SourceCapture)
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	second, err := capture.NewItem(capture.ActionSave, desc, capture.SourceCapture)
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct item ids for repeated enqueues")
	}
	if first.Descriptor.ID != second.Descriptor.ID {
		t.Fatal("expected descriptor id to stay stable")
	}
}

func TestNewItemRejectsUnknownAction(t *testing.T) {
	desc := capture.Descriptor{ID: "cap-1", Type: capture.TypeWeb, URL: "https://example.com"}
	if _, err := capture.NewItem("explode", desc, capture.SourceCapture); err == nil {
		t.Fatal("expected error for unknown action")
	}
}
