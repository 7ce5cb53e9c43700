// Package units normalizes sensor readings into canonical base units so
// that values from different providers can be combined numerically.
//
// Base units per device class:
//   - power:    W
//   - energy:   Wh
//   - monetary: $/kWh
package units

import "fmt"

// Device classes recognized by the converter.
const (
	DeviceClassPower    = "power"
	DeviceClassEnergy   = "energy"
	DeviceClassMonetary = "monetary"
)

// ConvertFunc converts a value expressed in unit for the given device
// class into the class base unit. Loaders call it once per sample and
// never inspect its internals, so callers may substitute their own
// conversion table.
type ConvertFunc func(value float64, unit, deviceClass string) (float64, error)

// Multiplicative factors into the base unit, keyed by device class and
// unit string as declared by the providers.
var factors = map[string]map[string]float64{
	DeviceClassPower: {
		"W":  1,
		"kW": 1e3,
		"MW": 1e6,
	},
	DeviceClassEnergy: {
		"Wh":  1,
		"kWh": 1e3,
		"MWh": 1e6,
	},
	DeviceClassMonetary: {
		"$/kWh": 1,
		"¢/kWh": 0.01,
		"c/kWh": 0.01,
		"$/MWh": 0.001,
	},
}

// ConvertToBaseUnit is the default ConvertFunc. It fails on units or
// device classes it does not know rather than passing values through,
// since a silently unconverted sample corrupts every aggregate built
// from it.
func ConvertToBaseUnit(value float64, unit, deviceClass string) (float64, error) {
	table, ok := factors[deviceClass]
	if !ok {
		return 0, fmt.Errorf("unknown device class %q", deviceClass)
	}
	factor, ok := table[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q for device class %q", unit, deviceClass)
	}
	return value * factor, nil
}

// Identity returns the value unchanged. Useful for callers that already
// hold base-unit data and in tests.
func Identity(value float64, _, _ string) (float64, error) {
	return value, nil
}
