// Package spec models technical specification constraints and their unit
// canonicalization, so "16GB" and "16 GB" express the same constraint.
package spec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Tolerance is the relative matching window applied around a point value.
// A constraint of 1000 matches documents in [800, 1200].
const Tolerance = 0.2

// Constraint is one normalized specification requirement.
type Constraint struct {
	name  string
	value float64
	unit  string
}

var valueUnitRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z%³/°]*)$`)

// Parse builds a Constraint from raw name/value/unit strings. The value may
// embed the unit ("16GB"); an explicit unit argument takes precedence. Values
// are converted to canonical base units where a conversion is known.
func Parse(name, rawValue, rawUnit string) (Constraint, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Constraint{}, fmt.Errorf("specification name is required")
	}

	m := valueUnitRe.FindStringSubmatch(strings.TrimSpace(rawValue))
	if m == nil {
		return Constraint{}, fmt.Errorf("malformed specification value %q for %s", rawValue, name)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Constraint{}, fmt.Errorf("parse specification value %q: %w", m[1], err)
	}

	unit := strings.TrimSpace(rawUnit)
	if unit == "" {
		unit = m[2]
	}

	value, unit = canonicalize(value, unit)
	return Constraint{name: name, value: value, unit: unit}, nil
}

// Name returns the lowercased specification name.
func (c Constraint) Name() string { return c.name }

// Value returns the canonical numeric value.
func (c Constraint) Value() float64 { return c.value }

// Unit returns the canonical unit, possibly empty.
func (c Constraint) Unit() string { return c.unit }

// Window returns the inclusive [lo, hi] matching band around the value.
func (c Constraint) Window() (float64, float64) {
	return c.value * (1 - Tolerance), c.value * (1 + Tolerance)
}

// canonicalize converts known units to a base unit. Unknown units are
// lowercased and kept verbatim.
func canonicalize(value float64, unit string) (float64, string) {
	switch strings.ToLower(unit) {
	case "w":
		return value, "w"
	case "kw":
		return value * 1e3, "w"
	case "mw":
		return value * 1e6, "w"
	case "v":
		return value, "v"
	case "kv":
		return value * 1e3, "v"
	case "mv":
		return value * 1e6, "v"
	case "mm":
		return value, "mm"
	case "cm":
		return value * 10, "mm"
	case "m":
		return value * 1000, "mm"
	case "in":
		return value * 25.4, "mm"
	case "gb":
		return value, "gb"
	case "tb":
		return value * 1024, "gb"
	case "mb":
		return value / 1024, "gb"
	default:
		return value, strings.ToLower(unit)
	}
}
