// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import "fmt"

// Value is the three-state permission verdict attached to a group or
// returned by a global permission resolver.
//
// Merge ordering: Deny dominates Allow; Inherit contributes nothing
// (absence of opinion). The zero value is Inherit, so a permission that
// was never assigned behaves as if no rule exists for it.
type Value uint8

const (
	// Inherit expresses no opinion. It never contributes to a decision.
	Inherit Value = iota

	// Allow grants the permission to matching users.
	Allow

	// Deny revokes the permission from matching users. A single Deny
	// vetoes any number of Allow contributions.
	Deny
)

// String returns the lowercase name of the value.
func (v Value) String() string {
	switch v {
	case Inherit:
		return "inherit"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return fmt.Sprintf("Value(%d)", uint8(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Value) MarshalText() ([]byte, error) {
	switch v {
	case Inherit, Allow, Deny:
		return []byte(v.String()), nil
	default:
		return nil, fmt.Errorf("invalid permission value %d", uint8(v))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. Accepted inputs are
// "inherit", "allow" and "deny" (case-insensitive).
func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := ParseValue(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue converts a string to a Value. The comparison is
// case-insensitive.
func ParseValue(s string) (Value, error) {
	switch fold(s) {
	case "inherit":
		return Inherit, nil
	case "allow":
		return Allow, nil
	case "deny":
		return Deny, nil
	default:
		return Inherit, fmt.Errorf("invalid permission value %q", s)
	}
}
