package loader

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterhub/forecastd/internal/forecast"
	"github.com/meterhub/forecastd/internal/models"
	"github.com/meterhub/forecastd/internal/states"
	"github.com/meterhub/forecastd/internal/units"
)

// countingProvider records lookups so tests can assert that shape
// errors are raised before any sensor access.
type countingProvider struct {
	inner states.Provider
	calls int
}

func (p *countingProvider) Get(ctx context.Context, entityID string) (*models.State, error) {
	p.calls++
	return p.inner.Get(ctx, entityID)
}

func newTestDispatcher() *forecast.Dispatcher {
	logger, _ := logtest.NewNullLogger()
	return forecast.NewDispatcher(logger)
}

// openMeteoState builds a state carrying an Open-Meteo style payload
// with the given (epoch, watt) samples.
func openMeteoState(entityID string, samples ...[2]float64) *models.State {
	entries := make([]any, len(samples))
	for i, s := range samples {
		entries[i] = map[string]any{"datetime": int64(s[0]), "power": s[1]}
	}
	return &models.State{
		EntityID:   entityID,
		Value:      "0",
		Attributes: map[string]any{"forecast": entries},
	}
}

func TestForecastLoaderIsValidValue(t *testing.T) {
	l := NewForecastLoader(states.NewMemoryStore(), newTestDispatcher(), units.Identity)

	assert.True(t, l.IsValidValue([]string{"sensor.a"}))
	assert.True(t, l.IsValidValue([]any{"sensor.a", "sensor.b"}))
	assert.True(t, l.IsValidValue([]string{}))

	assert.False(t, l.IsValidValue("sensor.a"))
	assert.False(t, l.IsValidValue(123))
	assert.False(t, l.IsValidValue([]any{1, 2, 3}))
	assert.False(t, l.IsValidValue(nil))
}

func TestForecastLoaderMissingSensor(t *testing.T) {
	store := states.NewMemoryStore()
	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	assert.False(t, l.Available(context.Background(), []string{"sensor.missing"}, nil))

	_, err := l.Load(context.Background(), []string{"sensor.missing"}, []int64{0, 3600})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSensorNotFound)
	assert.Contains(t, err.Error(), "sensor.missing")
}

func TestForecastLoaderNoForecastData(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), &models.State{
		EntityID: "sensor.no_forecast",
		Value:    "100",
		Attributes: map[string]any{
			models.AttrDeviceClass:       units.DeviceClassPower,
			models.AttrUnitOfMeasurement: "W",
		},
	}))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	assert.False(t, l.Available(context.Background(), []string{"sensor.no_forecast"}, nil))

	_, err := l.Load(context.Background(), []string{"sensor.no_forecast"}, []int64{0, 3600})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoForecastData)
}

func TestForecastLoaderInvalidValueType(t *testing.T) {
	provider := &countingProvider{inner: states.NewMemoryStore()}
	l := NewForecastLoader(provider, newTestDispatcher(), units.Identity)

	_, err := l.Load(context.Background(), "sensor.invalid", []int64{0, 3600})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "sequence of sensor entity IDs")
	assert.Zero(t, provider.calls, "shape errors must precede sensor access")
}

func TestForecastLoaderUnavailableState(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), &models.State{
		EntityID: "sensor.unavailable",
		Value:    models.StateUnavailable,
	}))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	assert.False(t, l.Available(context.Background(), []string{"sensor.unavailable"}, nil))
}

func TestForecastLoaderAvailable(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(),
		openMeteoState("sensor.valid", [2]float64{0, 1000})))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	assert.True(t, l.Available(context.Background(), []string{"sensor.valid"}, nil))
}

func TestForecastLoaderLoadRoundTrip(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(),
		openMeteoState("sensor.forecast", [2]float64{0, 1.0}, [2]float64{3600, 2.0})))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	result, err := l.Load(context.Background(), []string{"sensor.forecast"}, []int64{0, 3600})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 2.0}, result)
}

func TestForecastLoaderInterpolatesOntoGrid(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(),
		openMeteoState("sensor.forecast", [2]float64{0, 0.0}, [2]float64{3600, 100.0})))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	result, err := l.Load(context.Background(), []string{"sensor.forecast"}, []int64{0, 900, 1800, 7200})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0, 25.0, 50.0, 100.0}, result)
}

func TestForecastLoaderSumsMultipleSensors(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(),
		openMeteoState("sensor.east", [2]float64{0, 100}, [2]float64{3600, 200})))
	require.NoError(t, store.Upsert(context.Background(),
		openMeteoState("sensor.west", [2]float64{0, 50}, [2]float64{3600, 150})))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	result, err := l.Load(context.Background(), []string{"sensor.east", "sensor.west"}, []int64{0, 3600})
	require.NoError(t, err)
	assert.Equal(t, []float64{150.0, 350.0}, result)
}

func TestForecastLoaderConvertsToBaseUnits(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), &models.State{
		EntityID: "sensor.solcast",
		Value:    "0",
		Attributes: map[string]any{
			"detailedForecast": []any{
				map[string]any{"pv_estimate": 1.5, "period_start": int64(0)},
				map[string]any{"pv_estimate": 2.0, "period_start": int64(3600)},
			},
		},
	}))

	l := NewForecastLoader(store, newTestDispatcher(), units.ConvertToBaseUnit)

	// Solcast reports kW; the base power unit is W.
	result, err := l.Load(context.Background(), []string{"sensor.solcast"}, []int64{0, 3600})
	require.NoError(t, err)
	assert.Equal(t, []float64{1500.0, 2000.0}, result)
}

func TestForecastLoaderResultMatchesGridLength(t *testing.T) {
	store := states.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(),
		openMeteoState("sensor.forecast", [2]float64{0, 1.0})))

	l := NewForecastLoader(store, newTestDispatcher(), units.Identity)

	result, err := l.Load(context.Background(), []string{"sensor.forecast"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result)

	result, err = l.Load(context.Background(), []string{"sensor.forecast"}, []int64{0, 1, 2, 3, 4})
	require.NoError(t, err)
	assert.Len(t, result, 5)
}
