package homectl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

const unknownSuffix = "Available: living_room, bedroom, kitchen, bathroom, office."

func TestParseZone(t *testing.T) {
	tests := []struct {
		in   string
		want Zone
		ok   bool
	}{
		{"living_room", LivingRoom, true},
		{"LIVING_ROOM", LivingRoom, true},
		{"Living Room", LivingRoom, true},
		{"  kitchen ", Kitchen, true},
		{"Office", Office, true},
		{"garage", "", false},
		{"", "", false},
		{"living__room", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			z, err := ParseZone(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrUnknownZone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, z)
		})
	}
}

func TestZoneHelpers(t *testing.T) {
	assert.Equal(t, "living room", LivingRoom.Label())
	assert.True(t, Office.Valid())
	assert.False(t, Zone("Office").Valid())
	assert.Len(t, Zones(), 5)
	assert.Equal(t, []string{"living_room", "bedroom", "kitchen", "bathroom", "office"}, ZoneNames())
}

func TestAssistantGetTemperature(t *testing.T) {
	a := NewAssistant()
	for z, temp := range DefaultTemperatures() {
		for _, in := range []string{string(z), strings.ToUpper(string(z))} {
			got := a.GetTemperature(in)
			assert.Equal(t, fmt.Sprintf("The temperature in the %s is %d°C", z.Label(), temp), got)
		}
	}
}

func TestUnknownZoneIsSoft(t *testing.T) {
	a := NewAssistant()
	for _, in := range []string{"garage", "", "Attic"} {
		want := fmt.Sprintf("Unknown zone '%s'. %s", in, unknownSuffix)
		assert.Equal(t, want, a.GetTemperature(in))
		assert.Equal(t, want, a.SetTemperature(in, 18))

		got, err := GetTemperature(nil, in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		got, err = SetTemperature(nil, in, 18)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, DefaultTemperatures(), a.Snapshot(), "unknown zones leave the store alone")
}

func TestAssistantSetPersists(t *testing.T) {
	a := NewAssistant()
	assert.Equal(t, "Temperature in the bedroom set to 18°C", a.SetTemperature("Bedroom", 18))
	assert.Equal(t, "The temperature in the bedroom is 18°C", a.GetTemperature("bedroom"))

	temp, ok := a.Temperature(Bedroom)
	require.True(t, ok)
	assert.Equal(t, 18, temp)

	other := NewAssistant()
	assert.Equal(t, "The temperature in the bedroom is 20°C", other.GetTemperature("bedroom"),
		"each assistant owns its own store")
}

func TestWithTemperatures(t *testing.T) {
	a := NewAssistant(WithTemperatures(map[Zone]int{Kitchen: 30, "garage": 5}))
	assert.Equal(t, "The temperature in the kitchen is 30°C", a.GetTemperature("kitchen"))
	_, ok := a.Temperature("garage")
	assert.False(t, ok)
}

// Fallback writes are confirmed but never stored.
func TestFallbackSetDoesNotPersist(t *testing.T) {
	rc := agent.NewRunContext(context.Background(), "call_1", SetTemperatureName)

	got, err := SetTemperature(rc, "office", 25)
	require.NoError(t, err)
	assert.Equal(t, "Temperature in the office set to 25°C", got)

	got, err = GetTemperature(rc, "office")
	require.NoError(t, err)
	assert.Equal(t, "The temperature in the office is 21°C", got)
}

func TestCatalogInvoke(t *testing.T) {
	ctx := context.Background()
	a := NewAssistant()
	reg := a.Catalog()
	require.Equal(t, []string{GetTemperatureName, SetTemperatureName}, reg.Names())

	tests := []struct {
		name string
		temp any
		want string
	}{
		{"int", 19, "Temperature in the kitchen set to 19°C"},
		{"json float", float64(26), "Temperature in the kitchen set to 26°C"},
		{"json number", json.Number("17"), "Temperature in the kitchen set to 17°C"},
		{"fractional json float", 21.5, "Temperature in the kitchen set to 21°C"},
		{"numeric string", "23", "Temperature in the kitchen set to 23°C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Invoke(ctx, SetTemperatureName, map[string]any{"zone": "kitchen", "temp": tt.temp})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := reg.Invoke(ctx, GetTemperatureName, map[string]any{"zone": "kitchen"})
	require.NoError(t, err)
	assert.Equal(t, "The temperature in the kitchen is 23°C", got)
}

func TestCatalogBadTemperatureSurfaces(t *testing.T) {
	reg := NewAssistant().Catalog()
	for _, bad := range []any{"warm", "21.5", "1e3", true, nil} {
		_, err := reg.Invoke(context.Background(), SetTemperatureName, map[string]any{"zone": "office", "temp": bad})
		require.Error(t, err, "%v", bad)
		assert.ErrorIs(t, err, tool.ErrArgType)
		assert.True(t, tool.IsArgError(err))
	}
}

func TestCatalogSchemas(t *testing.T) {
	d, ok := NewAssistant().Catalog().Get(GetTemperatureName)
	require.True(t, ok)
	assert.Equal(t, getTemperatureDesc, d.Description)
	zone, ok := d.Param("zone")
	require.True(t, ok)
	assert.Equal(t, ZoneNames(), zone.Enum)
	assert.False(t, d.Async)

	f, ok := FallbackCatalog().Get(SetTemperatureName)
	require.True(t, ok)
	assert.True(t, f.Async)
	require.Len(t, f.Params, 2)
	assert.Equal(t, tool.TypeInteger, f.Params[1].Type)
}

func TestFallbackCatalogUsesRunContext(t *testing.T) {
	reg := FallbackCatalog()
	rc := agent.NewRunContext(context.Background(), "call_9", GetTemperatureName)

	got, err := reg.Invoke(rc.Context(), SetTemperatureName, map[string]any{"zone": "bathroom", "temp": float64(28)})
	require.NoError(t, err)
	assert.Equal(t, "Temperature in the bathroom set to 28°C", got)

	got, err = reg.Invoke(context.Background(), GetTemperatureName, map[string]any{"zone": "bathroom"})
	require.NoError(t, err)
	assert.Equal(t, "The temperature in the bathroom is 23°C", got)
}
