// Package forecast detects and parses the forecast payloads that
// third-party integrations attach to sensor attributes.
//
// Each supported provider encodes its forecast differently: a
// provider-specific attribute key holding a list of entries whose field
// names identify the format. The parser set is closed and known at
// build time; see registry.go for dispatch.
package forecast

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/meterhub/forecastd/internal/models"
)

// Point is a single forecast sample: a Unix timestamp in seconds and a
// value in the format's declared unit.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Parser recognizes and extracts one provider's forecast payload.
//
// Detect is a cheap structural probe so callers can resolve format
// ambiguity before paying the parse cost. Extract tolerates malformed
// entries: each is skipped with a warning rather than failing the whole
// series, and an empty slice (never an error) is returned when nothing
// usable remains.
type Parser interface {
	Domain() string
	Detect(state *models.State) bool
	Extract(state *models.State, log *logrus.Logger) []Point
}

// attrParser implements Parser for the common payload shape shared by
// all supported providers: attributes[key] is a list of entries, each a
// mapping with a timestamp field and a value field.
type attrParser struct {
	domain      string
	key         string
	timeField   string
	valueField  string
	unit        string
	deviceClass string
}

func (p *attrParser) Domain() string { return p.domain }

// entries returns the payload list under the parser's attribute key, or
// nil when the attribute is absent or not a sequence.
func (p *attrParser) entries(state *models.State) []any {
	if state == nil || state.Attributes == nil {
		return nil
	}
	raw, ok := state.Attributes[p.key]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	return list
}

func (p *attrParser) Detect(state *models.State) bool {
	list := p.entries(state)
	if len(list) == 0 {
		return false
	}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := entry[p.timeField]; !ok {
			continue
		}
		if _, ok := entry[p.valueField]; ok {
			return true
		}
	}
	return false
}

func (p *attrParser) Extract(state *models.State, log *logrus.Logger) []Point {
	list := p.entries(state)
	points := make([]Point, 0, len(list))

	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			p.warn(log, state, i, "entry is not a mapping")
			continue
		}

		rawTime, ok := entry[p.timeField]
		if !ok {
			p.warn(log, state, i, "missing "+p.timeField)
			continue
		}
		ts, err := parseTimestamp(rawTime)
		if err != nil {
			p.warn(log, state, i, "unparseable "+p.timeField)
			continue
		}

		rawValue, ok := entry[p.valueField]
		if !ok {
			p.warn(log, state, i, "missing "+p.valueField)
			continue
		}
		value, err := cast.ToFloat64E(rawValue)
		if err != nil {
			p.warn(log, state, i, "non-numeric "+p.valueField)
			continue
		}

		points = append(points, Point{Time: ts, Value: value})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	return points
}

func (p *attrParser) warn(log *logrus.Logger, state *models.State, index int, reason string) {
	if log == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"format":    p.domain,
		"entity_id": state.EntityID,
		"entry":     index,
	}).Warnf("Skipping malformed forecast entry: %s", reason)
}

// parseTimestamp accepts RFC 3339 strings as emitted by the providers
// as well as numeric Unix timestamps.
func parseTimestamp(raw any) (int64, error) {
	if s, ok := raw.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Unix(), nil
		}
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, err
	}
	return n, nil
}
