package forecast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/meterhub/forecastd/internal/models"
)

// ErrUnknownFormat is returned by ForecastUnits when no parser matches
// the state. Unit resolution has no safe empty fallback: a caller that
// cannot learn the units cannot use the data at all.
var ErrUnknownFormat = errors.New("unknown format")

// Dispatcher routes a state to the single parser whose format matches
// its attributes. The parser set is a fixed ordered registry; provider
// formats are known at build time and never discovered dynamically.
type Dispatcher struct {
	parsers []*attrParser
	log     *logrus.Logger
}

// NewDispatcher builds a dispatcher over the full parser registry.
func NewDispatcher(log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		parsers: []*attrParser{
			newAmberElectric(),
			newAEMONEM(),
			newSolcastSolar(),
			newOpenMeteoSolar(),
		},
		log: log,
	}
}

// Domains lists the registered format identifiers in registry order.
func (d *Dispatcher) Domains() []string {
	out := make([]string, len(d.parsers))
	for i, p := range d.parsers {
		out[i] = p.Domain()
	}
	return out
}

// DetectFormat probes every parser against the state. It returns the
// matching format identifier, or "" when no parser matches. When more
// than one parser matches, the payload is ambiguous: a warning naming
// the conflicting formats is logged and "" is returned, since guessing
// between formats would corrupt downstream unit interpretation.
func (d *Dispatcher) DetectFormat(state *models.State) string {
	var matches []string
	for _, p := range d.parsers {
		if p.Detect(state) {
			matches = append(matches, p.Domain())
		}
	}

	switch len(matches) {
	case 0:
		return ""
	case 1:
		return matches[0]
	default:
		if d.log != nil {
			d.log.WithField("entity_id", state.EntityID).
				Warnf("Multiple forecast formats detected: %s", strings.Join(matches, ", "))
		}
		return ""
	}
}

// ParseForecastData extracts the state's forecast series via the
// matched parser. It returns nil when no format is detected; a non-nil
// but empty series means the format matched but no entry was usable.
func (d *Dispatcher) ParseForecastData(state *models.State) []Point {
	domain := d.DetectFormat(state)
	if domain == "" {
		return nil
	}
	return d.parser(domain).Extract(state, d.log)
}

// ForecastUnits resolves the declared unit and device class for the
// state's forecast format.
func (d *Dispatcher) ForecastUnits(state *models.State) (unit, deviceClass string, err error) {
	domain := d.DetectFormat(state)
	if domain == "" {
		return "", "", fmt.Errorf("%w for sensor %s", ErrUnknownFormat, state.EntityID)
	}
	p := d.parser(domain)
	return p.unit, p.deviceClass, nil
}

func (d *Dispatcher) parser(domain string) *attrParser {
	for _, p := range d.parsers {
		if p.Domain() == domain {
			return p
		}
	}
	return nil
}
