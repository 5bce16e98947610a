package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Point is a normalized geographic location. Only the geo package
// produces Points from raw data.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawCoordinate is an unvalidated location as stored in the dataset.
// The variant set is closed: PairCoordinate, TextCoordinate and
// KeyedCoordinate.
type RawCoordinate interface {
	rawCoordinate()
}

// PairCoordinate is an ordered pair of numbers in unknown axis order.
type PairCoordinate [2]float64

// TextCoordinate holds two comma-separated numbers, e.g. "34.81,135.36".
type TextCoordinate string

// KeyedCoordinate maps conventional key spellings (lat, latitude, lng,
// lon, long, longitude) to values.
type KeyedCoordinate map[string]float64

func (PairCoordinate) rawCoordinate()  {}
func (TextCoordinate) rawCoordinate()  {}
func (KeyedCoordinate) rawCoordinate() {}

// Coordinate wraps a RawCoordinate so it can travel through JSON and
// SQLite. A nil Raw means the location is absent.
type Coordinate struct {
	Raw RawCoordinate
}

func Pair(a, b float64) Coordinate {
	return Coordinate{Raw: PairCoordinate{a, b}}
}

func Text(s string) Coordinate {
	return Coordinate{Raw: TextCoordinate(s)}
}

func Keyed(m map[string]float64) Coordinate {
	return Coordinate{Raw: KeyedCoordinate(m)}
}

func (c Coordinate) IsAbsent() bool {
	return c.Raw == nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	switch raw := c.Raw.(type) {
	case nil:
		return []byte("null"), nil
	case PairCoordinate:
		return json.Marshal([]jsonFloat{jsonFloat(raw[0]), jsonFloat(raw[1])})
	case TextCoordinate:
		return json.Marshal(string(raw))
	case KeyedCoordinate:
		out := make(map[string]jsonFloat, len(raw))
		for k, v := range raw {
			out[k] = jsonFloat(v)
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("unsupported coordinate shape %T", c.Raw)
	}
}

// UnmarshalJSON never fails on a malformed value: anything that is not
// one of the known shapes decodes as an absent coordinate.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	c.Raw = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil || len(parts) != 2 {
			return nil
		}
		c.Raw = PairCoordinate{decodeNumber(parts[0]), decodeNumber(parts[1])}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		c.Raw = TextCoordinate(s)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil
		}
		keyed := make(KeyedCoordinate, len(fields))
		for k, v := range fields {
			keyed[k] = decodeNumber(v)
		}
		c.Raw = keyed
	}
	return nil
}

// decodeNumber accepts JSON numbers and numeric strings; anything else
// becomes NaN so the normalizer rejects it.
func decodeNumber(raw json.RawMessage) float64 {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return math.NaN()
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// jsonFloat encodes non-finite values as null instead of failing.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
