// Package homectl implements the smart-home tools exposed to the assistant:
// reading and setting per-room temperatures.
//
// Two forms are provided. Assistant is the stateful form: it owns a
// temperature store for one session and its Catalog mutates that store.
// GetTemperature, SetTemperature and FallbackCatalog are the flat-function
// form used by hosts that take a list of free functions. The flat form reads
// the fixed defaults and does not persist writes.
package homectl

import (
	"errors"
	"fmt"
	"strings"
)

// Zone identifies a room whose temperature can be read or set.
type Zone string

const (
	LivingRoom Zone = "living_room"
	Bedroom    Zone = "bedroom"
	Kitchen    Zone = "kitchen"
	Bathroom   Zone = "bathroom"
	Office     Zone = "office"
)

// ErrUnknownZone is returned by ParseZone for names outside the zone set.
var ErrUnknownZone = errors.New("homectl: unknown zone")

var zones = []Zone{LivingRoom, Bedroom, Kitchen, Bathroom, Office}

// Zones returns every zone in declaration order.
func Zones() []Zone {
	return append([]Zone(nil), zones...)
}

// ZoneNames returns the zone identifiers in declaration order.
func ZoneNames() []string {
	out := make([]string, len(zones))
	for i, z := range zones {
		out[i] = string(z)
	}
	return out
}

// ParseZone normalizes s and maps it to a zone. Matching ignores case and
// surrounding whitespace, and treats spaces as underscores.
func ParseZone(s string) (Zone, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.Join(strings.Fields(norm), "_")
	for _, z := range zones {
		if string(z) == norm {
			return z, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownZone, s)
}

// Label returns the zone name with underscores replaced by spaces.
func (z Zone) Label() string {
	return strings.ReplaceAll(string(z), "_", " ")
}

// String implements fmt.Stringer.
func (z Zone) String() string { return string(z) }

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	for _, known := range zones {
		if z == known {
			return true
		}
	}
	return false
}

// DefaultTemperatures returns the initial store contents, in degrees Celsius.
func DefaultTemperatures() map[Zone]int {
	return map[Zone]int{
		LivingRoom: 22,
		Bedroom:    20,
		Kitchen:    24,
		Bathroom:   23,
		Office:     21,
	}
}

func unknownZone(input string) string {
	return fmt.Sprintf("Unknown zone '%s'. Available: %s.", input, strings.Join(ZoneNames(), ", "))
}

func reportTemperature(z Zone, temp int) string {
	return fmt.Sprintf("The temperature in the %s is %d°C", z.Label(), temp)
}

func confirmTemperature(z Zone, temp int) string {
	return fmt.Sprintf("Temperature in the %s set to %d°C", z.Label(), temp)
}
