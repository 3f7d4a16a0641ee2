package places

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMalformedEnvelope is returned when the response/body/items wrapper has an unexpected shape.
	ErrMalformedEnvelope = errors.New("places: malformed response envelope")
	// ErrMalformedField is returned when a present field cannot be parsed.
	ErrMalformedField = errors.New("places: malformed field")
)

type envelope struct {
	Response struct {
		Body struct {
			Items json.RawMessage `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// NormalizeTour maps a TourAPI list response onto places of the given category.
func NormalizeTour(raw []byte, category Category) ([]Place, error) {
	records, err := unwrapItems(raw)
	if err != nil {
		return nil, err
	}

	out := make([]Place, 0, len(records))
	for _, rec := range records {
		lat, err := rec.coordinate("mapy")
		if err != nil {
			return nil, err
		}
		lng, err := rec.coordinate("mapx")
		if err != nil {
			return nil, err
		}

		name := rec.firstTruthy("title")
		out = append(out, Place{
			// Empty when the item carries neither contentid nor title.
			ID:       rec.firstTruthy("contentid", "title"),
			Name:     name,
			Category: category,
			Lat:      lat,
			Lng:      lng,
			Address:  rec.optional("addr1"),
			Tel:      rec.optional("tel"),
			Image:    rec.optional("firstimage"),
			Source:   SourceTourAPI,
		})
	}
	return out, nil
}

// NormalizeGoCamping maps a GoCamping list response onto camping places.
func NormalizeGoCamping(raw []byte) ([]Place, error) {
	records, err := unwrapItems(raw)
	if err != nil {
		return nil, err
	}

	out := make([]Place, 0, len(records))
	for _, rec := range records {
		lat, err := rec.coordinate("mapY")
		if err != nil {
			return nil, err
		}
		lng, err := rec.coordinate("mapX")
		if err != nil {
			return nil, err
		}

		out = append(out, Place{
			ID:       rec.firstTruthy("contentId", "facltNm"),
			Name:     rec.firstTruthy("facltNm"),
			Category: CategoryCamping,
			Lat:      lat,
			Lng:      lng,
			Address:  rec.optional("addr1"),
			Tel:      rec.optional("tel"),
			Image:    rec.optional("firstImageUrl"),
			Source:   SourceGoCamping,
			Link:     rec.optional("homepage"),
		})
	}
	return out, nil
}

// unwrapItems returns response.body.items.item as a list. The providers send a bare
// object when there is exactly one hit and "" when there are none. Any falsy items or
// item value counts as no hits.
func unwrapItems(raw []byte) ([]record, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	items := bytes.TrimSpace(env.Response.Body.Items)
	if isBlank(items) {
		return nil, nil
	}
	if items[0] != '{' {
		return nil, fmt.Errorf("%w: items is not an object", ErrMalformedEnvelope)
	}

	var container struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(items, &container); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	item := bytes.TrimSpace(container.Item)
	if isBlank(item) {
		return nil, nil
	}

	switch item[0] {
	case '{':
		rec, err := decodeRecord(item)
		if err != nil {
			return nil, err
		}
		return []record{rec}, nil
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(item, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		records := make([]record, 0, len(list))
		for _, entry := range list {
			rec, err := decodeRecord(entry)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: item is neither object nor array", ErrMalformedEnvelope)
	}
}

// isBlank reports whether raw is missing or a falsy JSON value: null, "", 0, false, [] or {}.
func isBlank(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return false
	}
	return !truthyValue(value)
}

func decodeRecord(raw []byte) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: item: %v", ErrMalformedEnvelope, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: item is null", ErrMalformedEnvelope)
	}
	return rec, nil
}

// record gives optional-field access to one decoded item. A key is absent when it
// is missing or null, and falsy when it holds "", 0 or false.
type record map[string]any

func (r record) text(key string) (string, bool) {
	value, ok := r[key]
	if !ok || value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), true
		}
		return string(encoded), true
	}
}

func (r record) truthy(key string) bool {
	return truthyValue(r[key])
}

func truthyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case bool:
		return v
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// optional returns the field as a string, or nil when absent.
func (r record) optional(key string) *string {
	s, ok := r.text(key)
	if !ok {
		return nil
	}
	return &s
}

// firstTruthy returns the first truthy field among keys, or "".
func (r record) firstTruthy(keys ...string) string {
	for _, key := range keys {
		if !r.truthy(key) {
			continue
		}
		if s, ok := r.text(key); ok {
			return s
		}
	}
	return ""
}

// coordinate parses a latitude or longitude. Absent and falsy values yield nil, never 0.
func (r record) coordinate(key string) (*float64, error) {
	if !r.truthy(key) {
		return nil, nil
	}

	s, _ := r.text(key)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrMalformedField, key, s)
	}
	return &f, nil
}
