package schema

import (
	"fmt"
)

// LogicalType is the value type a field resolves to.
type LogicalType int

const (
	Str LogicalType = iota
	Int
	Float
	Bool
)

// Name returns the schema token for the type ("int", "float", "str", "bool").
func (t LogicalType) Name() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return "str"
	}
}

func (t LogicalType) String() string { return t.Name() }

// Numeric reports whether min/max bound the value (as opposed to its length).
func (t LogicalType) Numeric() bool {
	return t == Int || t == Float
}

// ParseType converts a schema type token to a LogicalType.
// An empty token resolves to Str. Unknown tokens fail with ErrUnsupportedType
// unless lenient is set, in which case they resolve to Str as well.
func ParseType(token string, lenient bool) (LogicalType, error) {
	switch token {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "str", "":
		return Str, nil
	case "bool":
		return Bool, nil
	}
	if lenient {
		return Str, nil
	}
	return Str, fmt.Errorf("%w: %q", ErrUnsupportedType, token)
}

// Presence is the resolved absence rule of a field.
type Presence int

const (
	// RequiredNoDefault fields must appear in every record.
	RequiredNoDefault Presence = iota
	// RequiredWithDefault fields are declared required but carry a default.
	// Absence falls back to the default.
	RequiredWithDefault
	// Optional fields may be absent or null; absence resolves to the default,
	// or to nil when none is declared.
	Optional
)

func (p Presence) String() string {
	switch p {
	case RequiredNoDefault:
		return "required"
	case RequiredWithDefault:
		return "required-with-default"
	default:
		return "optional"
	}
}

func resolvePresence(required, hasDefault bool) Presence {
	switch {
	case !required:
		return Optional
	case hasDefault:
		return RequiredWithDefault
	default:
		return RequiredNoDefault
	}
}
