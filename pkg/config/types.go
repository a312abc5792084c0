package config

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a duration string.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := time.ParseDuration(n.Value)
	if err != nil || v < 0 {
		return errorAt(n, "invalid duration %q", n.Value)
	}
	*d = Duration(v)
	return nil
}

// parseNumber reads a decimal or hexadecimal number of the given width.
// "any" and "none" both stand for the all-ones value.
func parseNumber(n *yaml.Node, bits int) (uint64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errorAt(n, "expected a number")
	}
	all := uint64(math.MaxUint64) >> (64 - bits)
	switch strings.ToLower(n.Value) {
	case "any", "none":
		return all, nil
	}
	v, err := strconv.ParseUint(n.Value, 0, bits)
	if err != nil {
		return 0, errorAt(n, "invalid %d-bit number %q", bits, n.Value)
	}
	return v, nil
}

// U8 is an 8-bit Number.
type U8 uint8

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *U8) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseNumber(n, 8)
	*u = U8(v)
	return err
}

// U16 is a 16-bit Number.
type U16 uint16

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *U16) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseNumber(n, 16)
	*u = U16(v)
	return err
}

// U32 is a 32-bit Number.
type U32 uint32

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *U32) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseNumber(n, 32)
	*u = U32(v)
	return err
}
