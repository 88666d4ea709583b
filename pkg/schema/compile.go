package schema

import (
	"fmt"
	"math"
	"strconv"
)

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

type compileConfig struct {
	lenientTypes bool
}

// WithLenientTypes resolves unknown type tokens to str instead of failing
// with ErrUnsupportedType. Use it only for documents written against the
// older permissive loader.
func WithLenientTypes() CompileOption {
	return func(c *compileConfig) {
		c.lenientTypes = true
	}
}

// CompiledField is the resolved check descriptor of one field.
// For numeric types Min/Max bound the value; for str they bound the length in
// characters. Default holds the coerced (and, for str, normalised) default.
type CompiledField struct {
	Name       string
	Type       LogicalType
	Presence   Presence
	Min        *float64
	Max        *float64
	Default    any
	HasDefault bool

	// Int bounds kept exact so values beyond 2^53 compare without rounding.
	intMin *int64
	intMax *int64
}

// Validator is the compiled, immutable form of a Definition.
// It is safe for concurrent use.
type Validator struct {
	fields []CompiledField
	index  map[string]int
}

// Compile resolves every field of def into a check descriptor.
// The result depends only on def and opts.
func Compile(def *Definition, opts ...CompileOption) (*Validator, error) {
	if def == nil {
		return nil, &ParseError{Reason: "nil definition"}
	}

	var cfg compileConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	v := &Validator{
		fields: make([]CompiledField, 0, len(def.fields)),
		index:  make(map[string]int, len(def.fields)),
	}
	for _, spec := range def.fields {
		f, err := compileField(spec, cfg)
		if err != nil {
			return nil, &CompileError{Field: spec.Name, Err: err}
		}
		v.index[f.Name] = len(v.fields)
		v.fields = append(v.fields, f)
	}
	return v, nil
}

func compileField(spec FieldSpec, cfg compileConfig) (CompiledField, error) {
	typ, err := ParseType(spec.Type, cfg.lenientTypes)
	if err != nil {
		return CompiledField{}, err
	}

	f := CompiledField{
		Name:     spec.Name,
		Type:     typ,
		Presence: resolvePresence(spec.Required, spec.HasDefault),
	}
	if err := f.compileBounds(spec.Min, spec.Max); err != nil {
		return CompiledField{}, err
	}

	if spec.HasDefault {
		val, ferr := f.apply(spec.Default)
		if ferr != nil {
			return CompiledField{}, fmt.Errorf("%w: default %v: %s", ErrInvalidConstraint, spec.Default, ferr.Reason)
		}
		f.Default = val
		f.HasDefault = true
	}
	return f, nil
}

func (f *CompiledField) compileBounds(lo, hi *float64) error {
	if lo == nil && hi == nil {
		return nil
	}
	if f.Type == Bool {
		return fmt.Errorf("%w: bool fields take no min/max", ErrInvalidConstraint)
	}

	for _, b := range []struct {
		name string
		val  *float64
	}{{"min", lo}, {"max", hi}} {
		if b.val == nil {
			continue
		}
		x := *b.val
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConstraint, b.name)
		}
		if f.Type != Float && x != math.Trunc(x) {
			return fmt.Errorf("%w: %s must be a whole number for %s fields", ErrInvalidConstraint, b.name, f.Type)
		}
		if f.Type == Str && x < 0 {
			return fmt.Errorf("%w: %s length cannot be negative", ErrInvalidConstraint, b.name)
		}
	}
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%w: min %s is greater than max %s", ErrInvalidConstraint, formatBound(*lo), formatBound(*hi))
	}

	if f.Type == Int {
		var err error
		if f.intMin, err = intBound("min", lo); err != nil {
			return err
		}
		if f.intMax, err = intBound("max", hi); err != nil {
			return err
		}
	}

	if lo != nil {
		f.Min = ptr(*lo)
	}
	if hi != nil {
		f.Max = ptr(*hi)
	}
	return nil
}

// intBound converts a whole-number bound to int64, rejecting values outside
// the int64 range.
func intBound(name string, b *float64) (*int64, error) {
	if b == nil {
		return nil, nil
	}
	if *b < math.MinInt64 || *b >= math.MaxInt64 {
		return nil, fmt.Errorf("%w: %s %s overflows int64", ErrInvalidConstraint, name, formatBound(*b))
	}
	return ptr(int64(*b)), nil
}

// Len returns the number of compiled fields.
func (v *Validator) Len() int { return len(v.fields) }

// Fields returns a copy of the compiled descriptors in declaration order.
func (v *Validator) Fields() []CompiledField {
	out := make([]CompiledField, len(v.fields))
	for i, f := range v.fields {
		out[i] = f.clone()
	}
	return out
}

// Field looks up a compiled descriptor by name.
func (v *Validator) Field(name string) (CompiledField, bool) {
	i, ok := v.index[name]
	if !ok {
		return CompiledField{}, false
	}
	return v.fields[i].clone(), true
}

// Names returns the declared field names in declaration order.
func (v *Validator) Names() []string {
	names := make([]string, len(v.fields))
	for i, f := range v.fields {
		names[i] = f.Name
	}
	return names
}

// Strict reports the extra-field policy. Undeclared keys are always rejected.
func (v *Validator) Strict() bool { return true }

// NormalizesStrings reports the string policy. Str values are always trimmed
// and lower-cased.
func (v *Validator) NormalizesStrings() bool { return true }

func (f CompiledField) clone() CompiledField {
	if f.Min != nil {
		f.Min = ptr(*f.Min)
	}
	if f.Max != nil {
		f.Max = ptr(*f.Max)
	}
	if f.intMin != nil {
		f.intMin = ptr(*f.intMin)
	}
	if f.intMax != nil {
		f.intMax = ptr(*f.intMax)
	}
	return f
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ptr[T any](v T) *T {
	return &v
}
