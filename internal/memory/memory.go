// Package memory parses and formats human-written memory quantities.
// The canonical unit for all arithmetic is the integer megabyte.
package memory

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse indicates a quantity string could not be interpreted.
var ErrParse = errors.New("cannot parse memory value")

// DefaultFloor is the minimum megabyte value a scaled quantity may
// reach; below this a reservation stops being useful.
const DefaultFloor = 32

// quantityPattern accepts "<number>[.<number>]<unit?>B?" where unit is
// one of K, M, G, T. A bare number, or a trailing B with no unit
// letter, is already-megabytes.
var quantityPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGT]?)B?$`)

// Parse converts a quantity string like "600M", "1G" or "1536" to
// integer megabytes. Fractional results truncate toward zero.
func Parse(s string) (int, error) {
	m := quantityPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrParse, s)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrParse, s)
	}

	switch m[2] {
	case "K":
		return int(value / 1024), nil
	case "G":
		return int(value * 1024), nil
	case "T":
		return int(value * 1024 * 1024), nil
	default: // bare number or M
		return int(value), nil
	}
}

// ParseValue converts a scalar taken from a manifest. YAML integer
// scalars are treated as already-megabytes; everything else goes
// through Parse.
func ParseValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return Parse(n)
	default:
		return Parse(fmt.Sprintf("%v", v))
	}
}

// Format renders megabytes in the canonical "<n>M" notation. Every
// quantity is normalized to megabytes on write-back regardless of the
// unit it was read in.
func Format(mb int) string {
	return fmt.Sprintf("%dM", mb)
}

// Scale multiplies mb by factor, truncating to integer megabytes, and
// clamps the result to floor.
func Scale(mb int, factor float64, floor int) int {
	scaled := int(float64(mb) * factor)
	if scaled < floor {
		return floor
	}
	return scaled
}
