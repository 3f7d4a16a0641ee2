package places

import (
	"context"
	"encoding/json"
	"fmt"

	"pitchmate/internal/gocamping"
	"pitchmate/internal/tourapi"
)

// TourClient is the subset of tourapi.Client used by the Service.
type TourClient interface {
	SearchKeyword(ctx context.Context, q tourapi.KeywordQuery) (json.RawMessage, error)
	AreaBasedList(ctx context.Context, q tourapi.AreaQuery) (json.RawMessage, error)
}

// CampingClient is the subset of gocamping.Client used by the Service.
type CampingClient interface {
	BasedList(ctx context.Context, page, size int) (json.RawMessage, error)
	SearchList(ctx context.Context, keyword string, page, size int) (json.RawMessage, error)
	LocationBasedList(ctx context.Context, q gocamping.LocationQuery) (json.RawMessage, error)
}

// Service fetches provider listings and normalizes them into places.
type Service struct {
	tour    TourClient
	camping CampingClient
}

// NewService constructs a Service.
func NewService(tour TourClient, camping CampingClient) *Service {
	return &Service{tour: tour, camping: camping}
}

// SearchTour runs a TourAPI keyword search. The category is decided from the query.
func (s *Service) SearchTour(ctx context.Context, q tourapi.KeywordQuery) ([]Place, error) {
	raw, err := s.tour.SearchKeyword(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search tour: %w", err)
	}
	return NormalizeTour(raw, ClassifyTour(q.ContentTypeID, q.Keyword))
}

// NearbySports lists leisure and sports venues for an area.
func (s *Service) NearbySports(ctx context.Context, areaCode, sigunguCode, page, size int) ([]Place, error) {
	contentType := ContentTypeLeports
	raw, err := s.tour.AreaBasedList(ctx, tourapi.AreaQuery{
		ContentTypeID: &contentType,
		AreaCode:      areaCode,
		SigunguCode:   sigunguCode,
		Page:          page,
		Size:          size,
	})
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	return NormalizeTour(raw, CategorySports)
}

// SearchCamping runs a GoCamping keyword search.
func (s *Service) SearchCamping(ctx context.Context, keyword string, page, size int) ([]Place, error) {
	raw, err := s.camping.SearchList(ctx, keyword, page, size)
	if err != nil {
		return nil, fmt.Errorf("search camping: %w", err)
	}
	return NormalizeGoCamping(raw)
}

// ListCamping pages through all campsites.
func (s *Service) ListCamping(ctx context.Context, page, size int) ([]Place, error) {
	raw, err := s.camping.BasedList(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("list camping: %w", err)
	}
	return NormalizeGoCamping(raw)
}

// NearbyCamping lists campsites within a radius of a point.
func (s *Service) NearbyCamping(ctx context.Context, q gocamping.LocationQuery) ([]Place, error) {
	raw, err := s.camping.LocationBasedList(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("nearby camping: %w", err)
	}
	return NormalizeGoCamping(raw)
}
