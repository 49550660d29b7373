package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args are the raw arguments of one invocation, keyed by parameter name.
// Values arrive either from Go callers or decoded from model JSON.
type Args map[string]any

// String returns the named argument as a string. Stringers are accepted.
func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", &ArgError{Param: name, Err: ErrArgMissing}
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", &ArgError{Param: name, Value: v, Err: ErrArgType}
}

// Int returns the named argument coerced to an int.
func (a Args) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, &ArgError{Param: name, Err: ErrArgMissing}
	}
	n, ok := ToInt(v)
	if !ok {
		return 0, &ArgError{Param: name, Value: v, Err: ErrArgType}
	}
	return n, nil
}

// ToInt coerces v to an int. Integers of any width are taken as is. Finite
// floats and fractional json.Numbers are truncated toward zero. Strings must
// hold a decimal integer, so "21.5" and "1e3" are rejected.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}
