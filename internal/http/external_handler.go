package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pitchmate/internal/gocamping"
	"pitchmate/internal/places"
	"pitchmate/internal/tourapi"
)

const (
	defaultPage     = 1
	defaultSize     = 20
	defaultRadiusKM = 10
)

// PlaceFinder is the place service used by the /external routes.
type PlaceFinder interface {
	SearchTour(ctx context.Context, q tourapi.KeywordQuery) ([]places.Place, error)
	NearbySports(ctx context.Context, areaCode, sigunguCode, page, size int) ([]places.Place, error)
	SearchCamping(ctx context.Context, keyword string, page, size int) ([]places.Place, error)
	ListCamping(ctx context.Context, page, size int) ([]places.Place, error)
	NearbyCamping(ctx context.Context, q gocamping.LocationQuery) ([]places.Place, error)
}

// ExternalHandler exposes normalized TourAPI and GoCamping listings.
type ExternalHandler struct {
	places PlaceFinder
	logger *slog.Logger
}

// NewExternalHandler constructs an ExternalHandler.
func NewExternalHandler(places PlaceFinder, logger *slog.Logger) *ExternalHandler {
	return &ExternalHandler{places: places, logger: logger}
}

// TourSearch handles GET /external/tour/search.
func (h *ExternalHandler) TourSearch(w http.ResponseWriter, r *http.Request) {
	p := queryParser{values: r.URL.Query()}
	q := tourapi.KeywordQuery{
		Keyword:       p.requiredString("q"),
		ContentTypeID: p.optionalInt("content_type_id"),
		AreaCode:      p.intOr("area_code", 0),
		SigunguCode:   p.intOr("sigungu_code", 0),
		Page:          p.intOr("page", defaultPage),
		Size:          p.intOr("size", defaultSize),
	}
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	result, err := h.places.SearchTour(r.Context(), q)
	h.respond(w, "tour search", result, err)
}

// SportsNearby handles GET /external/sports/nearby.
func (h *ExternalHandler) SportsNearby(w http.ResponseWriter, r *http.Request) {
	p := queryParser{values: r.URL.Query()}
	areaCode := p.intOr("area_code", 0)
	sigunguCode := p.intOr("sigungu_code", 0)
	page := p.intOr("page", defaultPage)
	size := p.intOr("size", defaultSize)
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	result, err := h.places.NearbySports(r.Context(), areaCode, sigunguCode, page, size)
	h.respond(w, "sports nearby", result, err)
}

// CampingSearch handles GET /external/camping/search.
func (h *ExternalHandler) CampingSearch(w http.ResponseWriter, r *http.Request) {
	p := queryParser{values: r.URL.Query()}
	keyword := p.requiredString("q")
	page := p.intOr("page", defaultPage)
	size := p.intOr("size", defaultSize)
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	result, err := h.places.SearchCamping(r.Context(), keyword, page, size)
	h.respond(w, "camping search", result, err)
}

// CampingList handles GET /external/camping/list.
func (h *ExternalHandler) CampingList(w http.ResponseWriter, r *http.Request) {
	p := queryParser{values: r.URL.Query()}
	page := p.intOr("page", defaultPage)
	size := p.intOr("size", defaultSize)
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	result, err := h.places.ListCamping(r.Context(), page, size)
	h.respond(w, "camping list", result, err)
}

// CampingNearby handles GET /external/camping/nearby. lng maps to mapX and lat to mapY.
func (h *ExternalHandler) CampingNearby(w http.ResponseWriter, r *http.Request) {
	p := queryParser{values: r.URL.Query()}
	q := gocamping.LocationQuery{
		MapX:     p.requiredFloat("lng"),
		MapY:     p.requiredFloat("lat"),
		RadiusKM: p.intOr("radius_km", defaultRadiusKM),
		Page:     p.intOr("page", defaultPage),
		Size:     p.intOr("size", defaultSize),
	}
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	result, err := h.places.NearbyCamping(r.Context(), q)
	h.respond(w, "camping nearby", result, err)
}

func (h *ExternalHandler) respond(w http.ResponseWriter, op string, result []places.Place, err error) {
	if err != nil {
		h.logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "upstream request failed")
		return
	}
	if result == nil {
		result = []places.Place{}
	}
	writeJSON(w, http.StatusOK, result)
}

// queryParser keeps the first parse error so handlers can check once.
type queryParser struct {
	values url.Values
	err    error
}

func (p *queryParser) raw(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) requiredString(key string) string {
	value := p.raw(key)
	if value == "" && p.err == nil {
		p.err = fmt.Errorf("missing '%s' parameter", key)
	}
	return value
}

func (p *queryParser) intOr(key string, fallback int) int {
	value := p.raw(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.invalid(key)
		return fallback
	}
	return n
}

func (p *queryParser) optionalInt(key string) *int {
	value := p.raw(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.invalid(key)
		return nil
	}
	return &n
}

func (p *queryParser) requiredFloat(key string) float64 {
	value := p.raw(key)
	if value == "" {
		if p.err == nil {
			p.err = fmt.Errorf("missing '%s' parameter", key)
		}
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.invalid(key)
		return 0
	}
	return f
}

func (p *queryParser) invalid(key string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid '%s' parameter", key)
	}
}
