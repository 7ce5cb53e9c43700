package forecast

import "github.com/meterhub/forecastd/internal/units"

// DomainSolcastSolar identifies the Solcast solar production format: a
// "detailedForecast" attribute listing entries with a PV estimate in kW
// and a period start time.
const DomainSolcastSolar = "solcast_solar"

func newSolcastSolar() *attrParser {
	return &attrParser{
		domain:      DomainSolcastSolar,
		key:         "detailedForecast",
		timeField:   "period_start",
		valueField:  "pv_estimate",
		unit:        "kW",
		deviceClass: units.DeviceClassPower,
	}
}
