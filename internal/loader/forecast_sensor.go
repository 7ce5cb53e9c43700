package loader

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Keys of the compound input value accepted by ForecastAndSensorLoader.
const (
	keyLive     = "live"
	keyForecast = "forecast"
)

// ForecastAndSensorLoader composes a live reading with a forecast
// series: the forecast is loaded onto the requested time grid and its
// first sample is replaced by the live value, so the series starts from
// what the sensor is actually measuring right now.
type ForecastAndSensorLoader struct {
	sensors   *SensorLoader
	forecasts *ForecastLoader
}

func NewForecastAndSensorLoader(sensors *SensorLoader, forecasts *ForecastLoader) *ForecastAndSensorLoader {
	return &ForecastAndSensorLoader{sensors: sensors, forecasts: forecasts}
}

// IsValidValue reports whether the value is a mapping with exactly the
// keys "live" and "forecast", each holding a non-string sequence.
// Element types are not checked here; that is delegated to the
// sub-loaders.
func (l *ForecastAndSensorLoader) IsValidValue(value any) bool {
	m, ok := asMap(value)
	if !ok || len(m) != 2 {
		return false
	}
	live, ok := m[keyLive]
	if !ok || !isSequence(live) {
		return false
	}
	fc, ok := m[keyForecast]
	if !ok || !isSequence(fc) {
		return false
	}
	return true
}

// Available requires both the live and the forecast sub-values to be
// available. Both sub-checks are always evaluated once so a caller can
// see either side's availability change independently.
func (l *ForecastAndSensorLoader) Available(ctx context.Context, value any, forecastTimes []int64) bool {
	m, ok := asMap(value)
	if !ok {
		return false
	}
	liveOK := l.sensors.Available(ctx, m[keyLive], forecastTimes)
	forecastOK := l.forecasts.Available(ctx, m[keyForecast], forecastTimes)
	return liveOK && forecastOK
}

// Load runs both sub-loads and merges the results. The sub-loads are
// independent and run concurrently; whichever fails first surfaces its
// error. With an empty time grid the result is empty regardless of the
// live reading, since there is no first sample to replace.
func (l *ForecastAndSensorLoader) Load(ctx context.Context, value any, forecastTimes []int64) ([]float64, error) {
	m, ok := asMap(value)
	if !ok {
		return nil, fmt.Errorf("%w: value must be a map", ErrInvalidValue)
	}

	var (
		live     float64
		forecast []float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := l.sensors.Load(gctx, m[keyLive], forecastTimes)
		live = v
		return err
	})
	g.Go(func() error {
		v, err := l.forecasts.Load(gctx, m[keyForecast], forecastTimes)
		forecast = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(forecast) == 0 {
		return []float64{}, nil
	}
	merged := append([]float64(nil), forecast...)
	merged[0] = live
	return merged, nil
}
