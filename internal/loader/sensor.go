package loader

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/meterhub/forecastd/internal/states"
	"github.com/meterhub/forecastd/internal/units"
)

// SensorLoader resolves one or more sensors into a single instantaneous
// reading. Values are normalized using each sensor's own declared unit
// and device class; no forecast format detection is involved.
type SensorLoader struct {
	states  states.Provider
	convert units.ConvertFunc
}

func NewSensorLoader(provider states.Provider, convert units.ConvertFunc) *SensorLoader {
	if convert == nil {
		convert = units.ConvertToBaseUnit
	}
	return &SensorLoader{states: provider, convert: convert}
}

// IsValidValue reports whether the value is a non-string sequence of
// sensor entity IDs.
func (l *SensorLoader) IsValidValue(value any) bool {
	_, err := sensorIDs(value)
	return err == nil
}

// Available reports whether every referenced sensor resolves to a state
// that currently carries data. The time grid is accepted for interface
// symmetry with the forecast loader and is unused.
func (l *SensorLoader) Available(ctx context.Context, value any, _ []int64) bool {
	ids, err := sensorIDs(value)
	if err != nil {
		return false
	}
	for _, id := range ids {
		state, err := l.states.Get(ctx, id)
		if err != nil || !state.Available() {
			return false
		}
	}
	return true
}

// Load reads each sensor's current numeric value, converts it to the
// base unit, and sums across sensors.
func (l *SensorLoader) Load(ctx context.Context, value any, _ []int64) (float64, error) {
	ids, err := sensorIDs(value)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, id := range ids {
		state, err := l.states.Get(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("%w: sensor %s not found", ErrSensorNotFound, id)
		}
		if !state.Available() {
			return 0, fmt.Errorf("%w: sensor %s is %s", ErrSensorNotFound, id, state.Value)
		}

		raw, err := cast.ToFloat64E(state.Value)
		if err != nil {
			return 0, fmt.Errorf("sensor %s has non-numeric value %q", id, state.Value)
		}

		converted, err := l.convert(raw, state.Unit(), state.DeviceClass())
		if err != nil {
			return 0, fmt.Errorf("sensor %s: %w", id, err)
		}
		total += converted
	}
	return total, nil
}
