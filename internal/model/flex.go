package model

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// FlexInt decodes integers the upstream API sends either as numbers or as
// quoted strings ("35"). It always encodes as a JSON number.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flex int %q: %w", s, err)
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the value as an int.
func (f FlexInt) Int() int { return int(f) }

// FlexFloat decodes floats sent as numbers or quoted strings ("1.0000").
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flex float %q: %w", s, err)
	}
	*f = FlexFloat(n)
	return nil
}

// FlexMap decodes a JSON object keyed by K. The upstream API serializes an
// empty object as [], which decodes to an empty map.
type FlexMap[K comparable, V any] map[K]V

// UnmarshalJSON implements json.Unmarshaler.
func (m *FlexMap[K, V]) UnmarshalJSON(data []byte) error {
	out, err := decodeFlexMap[K, V](data)
	if err != nil {
		return err
	}
	*m = out
	return nil
}

func decodeFlexMap[K comparable, V any](data []byte) (map[K]V, error) {
	switch trimmed := bytes.TrimSpace(data); {
	case bytes.Equal(trimmed, []byte("null")):
		return nil, nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return nil, fmt.Errorf("flex map: expected object, got array of %d elements", len(items))
		}
		return map[K]V{}, nil
	}

	var out map[K]V
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
