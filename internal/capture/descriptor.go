package capture

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type classifies what kind of content a capture holds.
type Type string

const (
	TypeWeb      Type = "web"
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeDocument Type = "document"
)

var captureTypes = map[Type]struct{}{
	TypeWeb:      {},
	TypeImage:    {},
	TypeVideo:    {},
	TypeAudio:    {},
	TypeDocument: {},
}

// ParseType converts a string into a known capture Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := captureTypes[normalized]
	return normalized, ok
}

// Descriptor describes what to do with a capture. It is produced at capture
// time and never mutated afterwards.
type Descriptor struct {
	// ID is the stable, client-generated identifier of the logical capture.
	// Re-enqueues of the same capture reuse it.
	ID              string   `json:"id"`
	Type            Type     `json:"type"`
	URL             string   `json:"url,omitempty"`
	Title           string   `json:"title,omitempty"`
	DescriptionText string   `json:"description_text,omitempty"`
	StyleTags       []string `json:"style_tags,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	// Location is a "lat,lon" pair as captured by the client, kept verbatim
	// alongside the parsed coordinates.
	Location        string   `json:"location,omitempty"`
	Price           string   `json:"price,omitempty"`
	PlaceID         string   `json:"place_id,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	SessionID       string   `json:"session_id,omitempty"`
	MasterCaptureID string   `json:"master_capture_id,omitempty"`
	Purposes        []string `json:"purposes,omitempty"`
}

// Validate checks the descriptor is usable as queue input.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("descriptor id is required")
	}
	if _, ok := ParseType(string(d.Type)); !ok {
		return fmt.Errorf("unknown capture type %q", d.Type)
	}
	if d.Type == TypeWeb && strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("web captures require a url")
	}
	if d.Location != "" {
		if _, _, err := ParseLocation(d.Location); err != nil {
			return err
		}
	}
	return nil
}

// Coordinates returns the descriptor's position, preferring the explicit
// latitude/longitude fields over the textual location pair.
func (d Descriptor) Coordinates() (lat, lon float64, ok bool) {
	if d.Latitude != nil && d.Longitude != nil {
		return *d.Latitude, *d.Longitude, true
	}
	if d.Location != "" {
		if lat, lon, err := ParseLocation(d.Location); err == nil {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

// ParseLocation splits a "lat,lon" pair.
func ParseLocation(value string) (lat, lon float64, err error) {
	parts := strings.SplitN(strings.TrimSpace(value), ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("location %q is not a lat,lon pair", value)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("location latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("location longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("location %q out of range", value)
	}
	return lat, lon, nil
}

// MergeStrings unions two string sets, preserving first-seen order and
// dropping duplicates case-insensitively.
func MergeStrings(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, values := range [][]string{existing, incoming} {
		for _, value := range values {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, trimmed)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// NormalizeStrings trims, de-duplicates, and sorts a tag set for stable
// persistence.
func NormalizeStrings(values []string) []string {
	merged := MergeStrings(nil, values)
	sort.Strings(merged)
	return merged
}
