package schema

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

// errNilValidator is returned when Validate is called without a validator.
var errNilValidator = errors.New("schema: nil validator")

// Validate checks record against v and returns the typed, normalised record.
// Every field is checked; all failures are returned together in a
// *ValidationError.
func Validate(v *Validator, record map[string]any) (*Record, error) {
	if v == nil {
		return nil, errNilValidator
	}

	values := make(map[string]any, len(v.fields))
	var causes []*FieldError

	for i := range v.fields {
		f := &v.fields[i]
		raw, present := record[f.Name]
		if !present {
			switch {
			case f.HasDefault:
				values[f.Name] = f.Default
			case f.Presence == Optional:
				values[f.Name] = nil
			default:
				causes = append(causes, &FieldError{
					Field:  f.Name,
					Cause:  MissingRequiredField,
					Reason: "required field is missing",
				})
			}
			continue
		}

		val, ferr := f.apply(raw)
		if ferr != nil {
			causes = append(causes, ferr)
			continue
		}
		values[f.Name] = val
	}

	// Strict mode: anything not declared is rejected.
	var extra []string
	for key := range record {
		if _, ok := v.index[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		causes = append(causes, &FieldError{
			Field:  key,
			Cause:  UnexpectedField,
			Reason: "field is not declared in the schema",
			Value:  record[key],
		})
	}

	if len(causes) > 0 {
		return nil, &ValidationError{Causes: causes}
	}
	return newRecord(v.Names(), values), nil
}

// apply coerces, normalises and bound-checks one present value.
func (f *CompiledField) apply(raw any) (any, *FieldError) {
	if raw == nil {
		if f.Presence == Optional {
			return nil, nil
		}
		return nil, f.fail(TypeMismatch, fmt.Sprintf("expected %s, got null", f.Type), nil)
	}

	switch f.Type {
	case Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, f.fail(TypeMismatch, fmt.Sprintf("expected bool, got %s", typeName(raw)), raw)
		}
		return b, nil

	case Int:
		i, reason := coerceInt(raw)
		if reason != "" {
			return nil, f.fail(TypeMismatch, reason, raw)
		}
		if ferr := f.checkIntRange(i, raw); ferr != nil {
			return nil, ferr
		}
		return i, nil

	case Float:
		x, reason := coerceFloat(raw)
		if reason != "" {
			return nil, f.fail(TypeMismatch, reason, raw)
		}
		if ferr := f.checkRange(x, raw); ferr != nil {
			return nil, ferr
		}
		return x, nil

	default:
		s, ok := raw.(string)
		if !ok {
			return nil, f.fail(TypeMismatch, fmt.Sprintf("expected str, got %s", typeName(raw)), raw)
		}
		s = normalizeString(s)
		n := float64(utf8.RuneCountInString(s))
		if f.Min != nil && n < *f.Min {
			return nil, f.fail(TooShort, fmt.Sprintf("length %d is shorter than %s", int(n), formatBound(*f.Min)), raw)
		}
		if f.Max != nil && n > *f.Max {
			return nil, f.fail(TooLong, fmt.Sprintf("length %d is longer than %s", int(n), formatBound(*f.Max)), raw)
		}
		return s, nil
	}
}

// checkRange uses negated comparisons so NaN never passes a bound.
func (f *CompiledField) checkRange(x float64, raw any) *FieldError {
	if f.Min != nil && !(x >= *f.Min) {
		return f.fail(OutOfRange, fmt.Sprintf("must be greater than or equal to %s", formatBound(*f.Min)), raw)
	}
	if f.Max != nil && !(x <= *f.Max) {
		return f.fail(OutOfRange, fmt.Sprintf("must be less than or equal to %s", formatBound(*f.Max)), raw)
	}
	return nil
}

// checkIntRange compares in int64 so large values are not rounded first.
func (f *CompiledField) checkIntRange(i int64, raw any) *FieldError {
	if f.intMin != nil && i < *f.intMin {
		return f.fail(OutOfRange, fmt.Sprintf("must be greater than or equal to %d", *f.intMin), raw)
	}
	if f.intMax != nil && i > *f.intMax {
		return f.fail(OutOfRange, fmt.Sprintf("must be less than or equal to %d", *f.intMax), raw)
	}
	return nil
}

func (f *CompiledField) fail(cause Cause, reason string, value any) *FieldError {
	return &FieldError{Field: f.Name, Cause: cause, Reason: reason, Value: value}
}
