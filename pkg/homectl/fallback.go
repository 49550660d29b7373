package homectl

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

// GetTemperature is the flat-function form of get_temperature. It reads the
// fixed defaults.
func GetTemperature(rc *agent.RunContext, zone string) (string, error) {
	z, err := ParseZone(zone)
	if err != nil {
		return unknownZone(zone), nil
	}
	temp := DefaultTemperatures()[z]
	fallbackLogger(rc).Debug("get_temperature (func) called", "zone", z, "temp", temp)
	return reportTemperature(z, temp), nil
}

// SetTemperature is the flat-function form of set_temperature. It confirms
// the value but does not store it.
func SetTemperature(rc *agent.RunContext, zone string, temp int) (string, error) {
	z, err := ParseZone(zone)
	if err != nil {
		return unknownZone(zone), nil
	}
	fallbackLogger(rc).Debug("set_temperature (func) called", "zone", z, "temp", temp)
	return confirmTemperature(z, temp), nil
}

// FallbackCatalog declares the flat-function tools. Handlers take their
// RunContext from the invocation context.
func FallbackCatalog() *tool.Registry {
	reg := tool.NewRegistry()
	reg.MustRegister(tool.Define(GetTemperatureName, getTemperatureDesc).
		String("zone", zoneParamDesc).
		Async().
		Handle(func(ctx context.Context, args tool.Args) (string, error) {
			zone, err := args.String("zone")
			if err != nil {
				return "", err
			}
			return GetTemperature(runContext(ctx), zone)
		}))
	reg.MustRegister(tool.Define(SetTemperatureName, setTemperatureDesc).
		String("zone", zoneParamDesc).
		Int("temp", tempParamDesc).
		Async().
		Handle(func(ctx context.Context, args tool.Args) (string, error) {
			zone, err := args.String("zone")
			if err != nil {
				return "", err
			}
			temp, err := args.Int("temp")
			if err != nil {
				return "", err
			}
			return SetTemperature(runContext(ctx), zone, temp)
		}))
	return reg
}

func runContext(ctx context.Context) *agent.RunContext {
	if rc, ok := agent.RunContextFrom(ctx); ok {
		return rc
	}
	return agent.NewRunContext(ctx, "", "")
}

func fallbackLogger(rc *agent.RunContext) *slog.Logger {
	l := slog.Default().With("component", "homectl.fallback")
	if rc != nil && rc.CallID != "" {
		l = l.With("call_id", rc.CallID)
	}
	return l
}
