package loader

import (
	"context"
	"fmt"

	"github.com/meterhub/forecastd/internal/forecast"
	"github.com/meterhub/forecastd/internal/states"
	"github.com/meterhub/forecastd/internal/units"
)

// ForecastLoader resolves one or more forecast sensors into a single
// series aligned to a caller-supplied time grid. Each sensor's payload
// is parsed via the format dispatcher, normalized to base units, and
// resampled by interpolation; multiple sensors are summed per grid
// point.
type ForecastLoader struct {
	states    states.Provider
	forecasts *forecast.Dispatcher
	convert   units.ConvertFunc
}

func NewForecastLoader(provider states.Provider, dispatcher *forecast.Dispatcher, convert units.ConvertFunc) *ForecastLoader {
	if convert == nil {
		convert = units.ConvertToBaseUnit
	}
	return &ForecastLoader{states: provider, forecasts: dispatcher, convert: convert}
}

// IsValidValue reports whether the value has the shape this loader
// accepts: a non-string sequence of sensor entity IDs.
func (l *ForecastLoader) IsValidValue(value any) bool {
	_, err := sensorIDs(value)
	return err == nil
}

// Available reports whether every referenced sensor resolves to a
// usable state with a recognized forecast payload. Any single failing
// sensor makes the whole input unavailable.
func (l *ForecastLoader) Available(ctx context.Context, value any, _ []int64) bool {
	ids, err := sensorIDs(value)
	if err != nil {
		return false
	}
	for _, id := range ids {
		state, err := l.states.Get(ctx, id)
		if err != nil || !state.Available() {
			return false
		}
		if l.forecasts.DetectFormat(state) == "" {
			return false
		}
	}
	return true
}

// Load resamples every sensor's normalized forecast series onto the
// requested times and sums them. The result always has the same length
// and order as forecastTimes.
func (l *ForecastLoader) Load(ctx context.Context, value any, forecastTimes []int64) ([]float64, error) {
	ids, err := sensorIDs(value)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(forecastTimes))
	for _, id := range ids {
		state, err := l.states.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: sensor %s not found", ErrSensorNotFound, id)
		}

		series := l.forecasts.ParseForecastData(state)
		if len(series) == 0 {
			return nil, fmt.Errorf("%w for sensor %s", ErrNoForecastData, id)
		}

		unit, deviceClass, err := l.forecasts.ForecastUnits(state)
		if err != nil {
			return nil, err
		}

		normalized := make([]forecast.Point, len(series))
		for i, p := range series {
			v, err := l.convert(p.Value, unit, deviceClass)
			if err != nil {
				return nil, fmt.Errorf("sensor %s: %w", id, err)
			}
			normalized[i] = forecast.Point{Time: p.Time, Value: v}
		}

		for i, v := range resample(normalized, forecastTimes) {
			result[i] += v
		}
	}
	return result, nil
}
