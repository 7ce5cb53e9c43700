// Package loader turns sensor state snapshots into numeric inputs on a
// caller-supplied time grid: forecast series resampled by
// interpolation, live instantaneous readings, and the composition of
// the two.
package loader

import (
	"errors"
	"fmt"
	"reflect"
)

// Shape and data errors surfaced by the loaders. Shape errors
// (ErrInvalidValue) are raised before any sensor access and are always
// distinguishable from data-availability errors.
var (
	ErrInvalidValue   = errors.New("invalid value")
	ErrSensorNotFound = errors.New("sensor not found")
	ErrNoForecastData = errors.New("no forecast data available")
)

// sensorIDs coerces a loader input value into a list of sensor entity
// IDs. The value must be a non-string sequence whose elements are all
// strings; anything else is a shape error.
func sensorIDs(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		ids := make([]string, len(v))
		for i, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: value must be a sequence of sensor entity IDs", ErrInvalidValue)
			}
			ids[i] = id
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%w: value must be a sequence of sensor entity IDs", ErrInvalidValue)
	}
}

// isSequence reports whether the value is a non-string sequence.
func isSequence(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.(string); ok {
		return false
	}
	kind := reflect.ValueOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// asMap coerces the value into a string-keyed map, reporting failure
// for any other shape.
func asMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
