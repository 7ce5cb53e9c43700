package forecast

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterhub/forecastd/internal/models"
)

func newState(entityID string, attributes map[string]any) *models.State {
	return &models.State{EntityID: entityID, Value: "0", Attributes: attributes}
}

// validSensors holds one well-formed payload per supported format.
var validSensors = map[string]*models.State{
	DomainAmberElectric: newState("sensor.amber_forecast", map[string]any{
		"forecasts": []any{
			map[string]any{"per_kwh": 0.25, "start_time": "2025-10-05T12:00:00+00:00"},
			map[string]any{"per_kwh": 0.31, "start_time": "2025-10-05T12:30:00+00:00"},
			map[string]any{"per_kwh": 0.28, "start_time": "2025-10-05T13:00:00+00:00"},
		},
	}),
	DomainAEMONEM: newState("sensor.nem_price", map[string]any{
		"forecast": []any{
			map[string]any{"price": 85.0, "start_time": "2025-10-05T12:00:00+00:00"},
			map[string]any{"price": 92.5, "start_time": "2025-10-05T12:05:00+00:00"},
		},
	}),
	DomainSolcastSolar: newState("sensor.solcast_pv_forecast", map[string]any{
		"detailedForecast": []any{
			map[string]any{"pv_estimate": 1.2, "period_start": "2025-10-05T12:00:00+00:00"},
			map[string]any{"pv_estimate": 1.8, "period_start": "2025-10-05T12:30:00+00:00"},
		},
	}),
	DomainOpenMeteoSolar: newState("sensor.open_meteo_power", map[string]any{
		"forecast": []any{
			map[string]any{"power": 900, "datetime": "2025-10-05T12:00:00+00:00"},
			map[string]any{"power": 1250, "datetime": "2025-10-05T13:00:00+00:00"},
		},
	}),
}

func TestDetectFormatValidSensors(t *testing.T) {
	d := NewDispatcher(nil)

	for domain, state := range validSensors {
		t.Run(domain, func(t *testing.T) {
			assert.Equal(t, domain, d.DetectFormat(state))
		})
	}
}

func TestParseForecastDataValidSensors(t *testing.T) {
	d := NewDispatcher(nil)

	for domain, state := range validSensors {
		t.Run(domain, func(t *testing.T) {
			series := d.ParseForecastData(state)
			require.NotEmpty(t, series)

			for i := 1; i < len(series); i++ {
				assert.Less(t, series[i-1].Time, series[i].Time,
					"timestamps should be strictly increasing")
			}
		})
	}
}

func TestForecastUnitsValidSensors(t *testing.T) {
	d := NewDispatcher(nil)

	for domain, state := range validSensors {
		t.Run(domain, func(t *testing.T) {
			unit, deviceClass, err := d.ForecastUnits(state)
			require.NoError(t, err)
			assert.NotEmpty(t, unit)
			assert.NotEmpty(t, deviceClass)
		})
	}
}

func TestDetectFormatEmptyAttributes(t *testing.T) {
	d := NewDispatcher(nil)

	assert.Equal(t, "", d.DetectFormat(newState("sensor.empty", map[string]any{})))
	assert.Equal(t, "", d.DetectFormat(newState("sensor.nil_attrs", nil)))
}

func TestDetectFormatAmbiguousPayloadWarns(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	d := NewDispatcher(logger)

	state := newState("sensor.ambiguous_forecast", map[string]any{
		"forecasts": []any{
			map[string]any{"per_kwh": 0.2, "start_time": "2025-10-05T12:00:00+00:00"},
		},
		"forecast": []any{
			map[string]any{"price": 0.3, "start_time": "2025-10-05T12:00:00+00:00"},
		},
	})

	assert.Equal(t, "", d.DetectFormat(state))

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
			assert.Contains(t, entry.Message, "Multiple forecast formats detected")
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestAmbiguousPayloadTreatedAsUndetected(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	d := NewDispatcher(logger)

	state := newState("sensor.ambiguous_forecast", map[string]any{
		"forecasts": []any{
			map[string]any{"per_kwh": 0.2, "start_time": "2025-10-05T12:00:00+00:00"},
		},
		"forecast": []any{
			map[string]any{"price": 0.3, "start_time": "2025-10-05T12:00:00+00:00"},
		},
	})

	assert.Nil(t, d.ParseForecastData(state))

	_, _, err := d.ForecastUnits(state)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseUnknownFormatReturnsNil(t *testing.T) {
	d := NewDispatcher(nil)

	state := newState("sensor.unknown", map[string]any{"unknown_field": "value"})

	assert.Equal(t, "", d.DetectFormat(state))
	assert.Nil(t, d.ParseForecastData(state))
}

func TestForecastUnitsUnknownFormat(t *testing.T) {
	d := NewDispatcher(nil)

	state := newState("sensor.unknown", map[string]any{"unexpected": "value"})

	_, _, err := d.ForecastUnits(state)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestDomains(t *testing.T) {
	d := NewDispatcher(nil)

	assert.Equal(t, []string{
		DomainAmberElectric,
		DomainAEMONEM,
		DomainSolcastSolar,
		DomainOpenMeteoSolar,
	}, d.Domains())
}
