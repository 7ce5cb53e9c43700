package forecast

import "github.com/meterhub/forecastd/internal/units"

// DomainOpenMeteoSolar identifies the Open-Meteo solar forecast format:
// a "forecast" attribute listing entries with an instantaneous power in
// watts and a sample datetime. It shares its attribute key with the
// AEMO format; the entry fields disambiguate the two.
const DomainOpenMeteoSolar = "open_meteo_solar_forecast"

func newOpenMeteoSolar() *attrParser {
	return &attrParser{
		domain:      DomainOpenMeteoSolar,
		key:         "forecast",
		timeField:   "datetime",
		valueField:  "power",
		unit:        "W",
		deviceClass: units.DeviceClassPower,
	}
}
