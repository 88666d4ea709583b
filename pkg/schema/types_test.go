package schema

import (
	"errors"
	"testing"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		lenient bool
		want    LogicalType
		wantErr bool
	}{
		{"int", false, Int, false},
		{"float", false, Float, false},
		{"str", false, Str, false},
		{"bool", false, Bool, false},
		{"", false, Str, false},
		{"string", false, Str, true},
		{"integer", false, Str, true},
		{"string", true, Str, false},
		{"decimal", true, Str, false},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.input, tt.lenient)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q, %v) error = %v, wantErr %v", tt.input, tt.lenient, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("ParseType(%q) error = %v, want ErrUnsupportedType", tt.input, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseType(%q, %v) = %v, want %v", tt.input, tt.lenient, got, tt.want)
		}
	}
}

func TestLogicalTypeName(t *testing.T) {
	for typ, want := range map[LogicalType]string{Int: "int", Float: "float", Str: "str", Bool: "bool"} {
		if typ.Name() != want {
			t.Errorf("Name() = %q, want %q", typ.Name(), want)
		}
	}
	if !Int.Numeric() || !Float.Numeric() || Str.Numeric() || Bool.Numeric() {
		t.Error("Numeric() should be true only for int and float")
	}
}

func TestResolvePresence(t *testing.T) {
	tests := []struct {
		required, hasDefault bool
		want                 Presence
	}{
		{true, false, RequiredNoDefault},
		{true, true, RequiredWithDefault},
		{false, false, Optional},
		{false, true, Optional},
	}
	for _, tt := range tests {
		if got := resolvePresence(tt.required, tt.hasDefault); got != tt.want {
			t.Errorf("resolvePresence(%v, %v) = %v, want %v", tt.required, tt.hasDefault, got, tt.want)
		}
	}
}
