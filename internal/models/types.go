package models

import "time"

// Sentinel state values used by sensors that currently carry no data.
const (
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// Attribute keys shared by every sensor payload.
const (
	AttrUnitOfMeasurement = "unit_of_measurement"
	AttrDeviceClass       = "device_class"
)

// State is a point-in-time snapshot of a sensor: its current value plus
// the provider-specific attribute payload. It is read-only once built;
// nothing downstream mutates it.
type State struct {
	EntityID    string         `json:"entity_id"`
	Value       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Available reports whether the state carries usable data, i.e. is not
// one of the sentinel values.
func (s *State) Available() bool {
	return s.Value != StateUnavailable && s.Value != StateUnknown
}

// Unit returns the sensor's declared unit of measurement, if any.
func (s *State) Unit() string {
	u, _ := s.Attributes[AttrUnitOfMeasurement].(string)
	return u
}

// DeviceClass returns the sensor's declared device class, if any.
func (s *State) DeviceClass() string {
	c, _ := s.Attributes[AttrDeviceClass].(string)
	return c
}
