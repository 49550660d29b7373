package homectl

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-hearth/pkg/tool"
)

// Tool names and descriptions shared by both forms.
const (
	GetTemperatureName = "get_temperature"
	SetTemperatureName = "set_temperature"

	getTemperatureDesc = "Get the temperature in a specific room"
	setTemperatureDesc = "Set the temperature in a specific room"
	zoneParamDesc      = "The specific zone"
	tempParamDesc      = "The temperature to set"
)

// Assistant is the stateful form. It owns one session's temperature store.
//
// Assistant does no locking: hosts serialize tool calls, so at most one
// caller touches a given instance at a time.
type Assistant struct {
	temps  map[Zone]int
	logger *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithTemperatures overrides initial values for the given zones.
func WithTemperatures(temps map[Zone]int) Option {
	return func(a *Assistant) {
		for z, t := range temps {
			if z.Valid() {
				a.temps[z] = t
			}
		}
	}
}

// NewAssistant creates an assistant with the default temperatures.
func NewAssistant(opts ...Option) *Assistant {
	a := &Assistant{
		temps:  DefaultTemperatures(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "homectl.assistant")
	return a
}

// GetTemperature reports the temperature in zone. Unknown zones yield a
// message listing the valid ones.
func (a *Assistant) GetTemperature(zone string) string {
	z, err := ParseZone(zone)
	if err != nil {
		a.logger.Debug("get_temperature unknown zone", "zone", zone)
		return unknownZone(zone)
	}
	temp := a.temps[z]
	a.logger.Debug("get_temperature called", "zone", z, "temp", temp)
	return reportTemperature(z, temp)
}

// SetTemperature stores temp for zone and confirms it.
func (a *Assistant) SetTemperature(zone string, temp int) string {
	z, err := ParseZone(zone)
	if err != nil {
		a.logger.Debug("set_temperature unknown zone", "zone", zone)
		return unknownZone(zone)
	}
	a.temps[z] = temp
	a.logger.Debug("set_temperature called", "zone", z, "temp", temp)
	return confirmTemperature(z, temp)
}

// Temperature returns the stored value for z.
func (a *Assistant) Temperature(z Zone) (int, bool) {
	t, ok := a.temps[z]
	return t, ok
}

// Snapshot returns a copy of the store.
func (a *Assistant) Snapshot() map[Zone]int {
	out := make(map[Zone]int, len(a.temps))
	for z, t := range a.temps {
		out[z] = t
	}
	return out
}

// Catalog declares the assistant's tools, bound to this instance.
func (a *Assistant) Catalog() *tool.Registry {
	reg := tool.NewRegistry()
	reg.MustRegister(tool.Define(GetTemperatureName, getTemperatureDesc).
		String("zone", zoneParamDesc, ZoneNames()...).
		Handle(func(ctx context.Context, args tool.Args) (string, error) {
			zone, err := args.String("zone")
			if err != nil {
				return "", err
			}
			return a.GetTemperature(zone), nil
		}))
	reg.MustRegister(tool.Define(SetTemperatureName, setTemperatureDesc).
		String("zone", zoneParamDesc, ZoneNames()...).
		Int("temp", tempParamDesc).
		Handle(func(ctx context.Context, args tool.Args) (string, error) {
			zone, err := args.String("zone")
			if err != nil {
				return "", err
			}
			temp, err := args.Int("temp")
			if err != nil {
				return "", err
			}
			return a.SetTemperature(zone, temp), nil
		}))
	return reg
}
