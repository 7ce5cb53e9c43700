package forecast

import "github.com/meterhub/forecastd/internal/units"

// DomainAEMONEM identifies the AEMO National Electricity Market price
// format: a "forecast" attribute listing entries with a wholesale $/MWh
// price and an interval start time.
const DomainAEMONEM = "aemo_nem"

func newAEMONEM() *attrParser {
	return &attrParser{
		domain:      DomainAEMONEM,
		key:         "forecast",
		timeField:   "start_time",
		valueField:  "price",
		unit:        "$/MWh",
		deviceClass: units.DeviceClassMonetary,
	}
}
