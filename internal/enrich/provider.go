package enrich

import (
	"context"
	"strings"
)

// Priority bands for merge layering. Explicit user data beats structured
// provider context, which beats the generic web fallback. Providers may use
// intermediate values; only relative order matters.
const (
	PriorityManual     = 100
	PriorityStructured = 50
	PriorityFallback   = 10
)

// Query is the input handed to every provider for one record.
type Query struct {
	CaptureID   string
	CaptureType string
	URL         string
	Title       string
	Description string
	Latitude    *float64
	Longitude   *float64
	PlaceID     string
	// Payload carries the raw media bytes when the capture has them.
	Payload []byte
}

// Data is one provider's contribution. Empty fields mean "no opinion".
type Data struct {
	Title           string
	DescriptionText string
	Summary         string
	Categories      []string
	StyleTags       []string
	Purposes        []string
	Price           string
	Rating          float64
	PlaceID         string
	Latitude        *float64
	Longitude       *float64
	LocationName    string
	// Context blobs are provider-shaped JSON documents persisted verbatim
	// on the record.
	PlaceContext    string
	WebContext      string
	DocumentContext string
	WeatherContext  string
	ActivityContext string
}

// IsZero reports whether the data carries no contribution at all.
func (d Data) IsZero() bool {
	return strings.TrimSpace(d.Title) == "" &&
		strings.TrimSpace(d.DescriptionText) == "" &&
		strings.TrimSpace(d.Summary) == "" &&
		len(d.Categories) == 0 &&
		len(d.StyleTags) == 0 &&
		len(d.Purposes) == 0 &&
		d.Price == "" &&
		d.Rating == 0 &&
		d.PlaceID == "" &&
		d.Latitude == nil &&
		d.Longitude == nil &&
		d.LocationName == "" &&
		d.PlaceContext == "" &&
		d.WebContext == "" &&
		d.DocumentContext == "" &&
		d.WeatherContext == "" &&
		d.ActivityContext == ""
}

// HasCoordinates reports whether the data proposes a position.
func (d Data) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// Provider is the narrow contract every enrichment source implements.
type Provider interface {
	// Name identifies the provider in logs and the processing audit trail.
	Name() string
	// Priority places the provider's results in the merge order.
	Priority() int
	// Enrich returns the provider's contribution for the query. Errors are
	// non-fatal to the pass; the provider's fields simply stay empty.
	Enrich(ctx context.Context, query Query) (Data, error)
}
