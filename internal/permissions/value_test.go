// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import "testing"

func TestValue_String(t *testing.T) {
	if got := Allow.String(); got != "allow" {
		t.Errorf("Allow.String() = %q, want %q", got, "allow")
	}
	if got := Value(42).String(); got != "Value(42)" {
		t.Errorf("Value(42).String() = %q, want %q", got, "Value(42)")
	}
}

func TestValue_ZeroValueIsInherit(t *testing.T) {
	var v Value
	if v != Inherit {
		t.Errorf("zero Value = %v, want Inherit", v)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input   string
		want    Value
		wantErr bool
	}{
		{"allow", Allow, false},
		{"DENY", Deny, false},
		{"Inherit", Inherit, false},
		{"granted", Inherit, true},
		{"", Inherit, true},
	}

	for _, tt := range tests {
		got, err := ParseValue(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseValue(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseValue(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValue_UnmarshalText(t *testing.T) {
	var v Value
	if err := v.UnmarshalText([]byte("deny")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if v != Deny {
		t.Errorf("UnmarshalText(deny) = %v, want Deny", v)
	}
	if err := v.UnmarshalText([]byte("maybe")); err == nil {
		t.Error("UnmarshalText(maybe) error = nil, want error")
	}
}
