package enrich

import (
	"strings"

	"satchel/internal/capture"
)

// Merge layers results into a single Data. Results must already be sorted
// by descending priority (Runner.Run guarantees this). A lower-priority
// result only fills fields the higher layers left empty; it never
// overwrites. Set-valued fields (categories, tags, purposes) union instead
// of replacing, since additional labels are not conflicts.
func Merge(results []Result) Data {
	var merged Data
	for _, result := range results {
		if result.Err != nil || result.Data.IsZero() {
			continue
		}
		layer(&merged, result.Data)
	}
	return merged
}

func layer(merged *Data, incoming Data) {
	if merged.Title == "" {
		merged.Title = strings.TrimSpace(incoming.Title)
	}
	if merged.DescriptionText == "" {
		merged.DescriptionText = strings.TrimSpace(incoming.DescriptionText)
	}
	if merged.Summary == "" {
		merged.Summary = strings.TrimSpace(incoming.Summary)
	}
	merged.Categories = capture.MergeStrings(merged.Categories, incoming.Categories)
	merged.StyleTags = capture.MergeStrings(merged.StyleTags, incoming.StyleTags)
	merged.Purposes = capture.MergeStrings(merged.Purposes, incoming.Purposes)
	if merged.Price == "" {
		merged.Price = incoming.Price
	}
	if merged.Rating == 0 {
		merged.Rating = incoming.Rating
	}
	if merged.PlaceID == "" {
		merged.PlaceID = incoming.PlaceID
	}
	if merged.Latitude == nil && merged.Longitude == nil && incoming.HasCoordinates() {
		merged.Latitude = incoming.Latitude
		merged.Longitude = incoming.Longitude
	}
	if merged.LocationName == "" {
		merged.LocationName = incoming.LocationName
	}
	if merged.PlaceContext == "" {
		merged.PlaceContext = incoming.PlaceContext
	}
	if merged.WebContext == "" {
		merged.WebContext = incoming.WebContext
	}
	if merged.DocumentContext == "" {
		merged.DocumentContext = incoming.DocumentContext
	}
	if merged.WeatherContext == "" {
		merged.WeatherContext = incoming.WeatherContext
	}
	if merged.ActivityContext == "" {
		merged.ActivityContext = incoming.ActivityContext
	}
}

// ManualData builds the highest-priority layer from user-supplied
// descriptor fields so explicit input always wins the merge.
func ManualData(desc capture.Descriptor) Data {
	data := Data{
		Title:           desc.Title,
		DescriptionText: desc.DescriptionText,
		Categories:      desc.Categories,
		StyleTags:       desc.StyleTags,
		Purposes:        desc.Purposes,
		Price:           desc.Price,
		PlaceID:         desc.PlaceID,
	}
	if lat, lon, ok := desc.Coordinates(); ok {
		data.Latitude = &lat
		data.Longitude = &lon
	}
	return data
}
