package forecast

import "github.com/meterhub/forecastd/internal/units"

// DomainAmberElectric identifies the Amber Electric price feed format:
// a "forecasts" attribute listing entries with a per-kWh price and an
// interval start time.
const DomainAmberElectric = "amberelectric"

func newAmberElectric() *attrParser {
	return &attrParser{
		domain:      DomainAmberElectric,
		key:         "forecasts",
		timeField:   "start_time",
		valueField:  "per_kwh",
		unit:        "$/kWh",
		deviceClass: units.DeviceClassMonetary,
	}
}
