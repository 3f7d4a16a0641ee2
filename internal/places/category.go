package places

import "strings"

const (
	// ContentTypeLeports is the TourAPI content type for leisure and sports venues.
	ContentTypeLeports = 28

	experienceMarker = "체험"
)

// ClassifyTour decides the category of TourAPI results from the request itself.
// The payload is never consulted.
func ClassifyTour(contentTypeID *int, keyword string) Category {
	switch {
	case contentTypeID != nil && *contentTypeID == ContentTypeLeports:
		return CategorySports
	case strings.Contains(keyword, experienceMarker):
		return CategoryExperience
	default:
		return CategoryGeneral
	}
}
