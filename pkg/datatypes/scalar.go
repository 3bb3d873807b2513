package datatypes

import "math"

// Int is a DataType mapping to int64, with optional bounds.
type Int struct {
	// Units is the unit of measurement (e.g., "W", "mm").
	Units string

	// Min is the minimum allowed value, or nil for no lower bound.
	Min *int64

	// Max is the maximum allowed value, or nil for no upper bound.
	Max *int64
}

// Kind returns KindInt.
func (Int) Kind() Kind { return KindInt }

// InitialValue returns int64(0).
func (Int) InitialValue() any { return int64(0) }

// Validate coerces a numeric value to int64 and checks bounds.
// Floats are truncated towards zero.
func (d Int) Validate(value any) (any, error) {
	n, ok := toInt64(value)
	if !ok {
		return nil, validationErrorf(KindInt, value, "expected integer, got %T", value)
	}
	if d.Min != nil && n < *d.Min {
		return nil, validationErrorf(KindInt, value, "less than minimum %d", *d.Min)
	}
	if d.Max != nil && n > *d.Max {
		return nil, validationErrorf(KindInt, value, "greater than maximum %d", *d.Max)
	}
	return n, nil
}

// Float is a DataType mapping to float64, with optional bounds and a
// display precision.
type Float struct {
	// Units is the unit of measurement.
	Units string

	// Prec is the number of decimal places values are rounded to.
	// The zero value means the default of 2; negative disables rounding.
	Prec int

	// Min is the minimum allowed value, or nil for no lower bound.
	Min *float64

	// Max is the maximum allowed value, or nil for no upper bound.
	Max *float64
}

// Kind returns KindFloat.
func (Float) Kind() Kind { return KindFloat }

// Precision resolves the configured decimal places: the zero value
// defaults to 2, negative means no rounding and resolves to -1.
func (d Float) Precision() int {
	if d.Prec == 0 {
		return 2
	}
	if d.Prec < 0 {
		return -1
	}
	return d.Prec
}

// InitialValue returns float64(0).
func (Float) InitialValue() any { return float64(0) }

// Validate coerces a numeric value to float64, rounds to the configured
// precision and checks bounds.
func (d Float) Validate(value any) (any, error) {
	f, ok := toFloat64(value)
	if !ok {
		return nil, validationErrorf(KindFloat, value, "expected float, got %T", value)
	}
	if prec := d.Precision(); prec >= 0 {
		scale := math.Pow10(prec)
		f = math.Round(f*scale) / scale
	}
	if d.Min != nil && f < *d.Min {
		return nil, validationErrorf(KindFloat, value, "less than minimum %g", *d.Min)
	}
	if d.Max != nil && f > *d.Max {
		return nil, validationErrorf(KindFloat, value, "greater than maximum %g", *d.Max)
	}
	return f, nil
}

// Bool is a DataType mapping to bool.
type Bool struct{}

// Kind returns KindBool.
func (Bool) Kind() Kind { return KindBool }

// InitialValue returns false.
func (Bool) InitialValue() any { return false }

// Validate accepts only bool values.
func (Bool) Validate(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, validationErrorf(KindBool, value, "expected bool, got %T", value)
	}
	return b, nil
}

// String is a DataType mapping to string, with an optional maximum length.
type String struct {
	// Length is the maximum allowed length. Zero means unbounded.
	Length int
}

// Kind returns KindString.
func (String) Kind() Kind { return KindString }

// InitialValue returns "".
func (String) InitialValue() any { return "" }

// Validate accepts string values within the configured length.
func (d String) Validate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, validationErrorf(KindString, value, "expected string, got %T", value)
	}
	if d.Length > 0 && len(s) > d.Length {
		return nil, validationErrorf(KindString, value, "longer than %d characters", d.Length)
	}
	return s, nil
}

// Enum is a DataType whose values are drawn from a fixed list of members.
type Enum struct {
	// Members is the ordered list of allowed member names.
	// An Enum must have at least one member.
	Members []string
}

// Kind returns KindEnum.
func (Enum) Kind() Kind { return KindEnum }

// InitialValue returns the first member, or "" if the enum is empty.
func (d Enum) InitialValue() any {
	if len(d.Members) == 0 {
		return ""
	}
	return d.Members[0]
}

// IndexOf returns the index of the given member, or -1 if it is not one.
func (d Enum) IndexOf(member string) int {
	for i, m := range d.Members {
		if m == member {
			return i
		}
	}
	return -1
}

// Validate accepts a member name or an integer index into the member list,
// coercing indices to the member name.
func (d Enum) Validate(value any) (any, error) {
	if len(d.Members) == 0 {
		return nil, validationErrorf(KindEnum, value, "enum has no members")
	}
	switch v := value.(type) {
	case string:
		if d.IndexOf(v) < 0 {
			return nil, validationErrorf(KindEnum, value, "not a member of %v", d.Members)
		}
		return v, nil
	default:
		i, ok := toInt64(value)
		if !ok {
			return nil, validationErrorf(KindEnum, value, "expected member name or index, got %T", value)
		}
		if i < 0 || i >= int64(len(d.Members)) {
			return nil, validationErrorf(KindEnum, value, "index out of range [0, %d)", len(d.Members))
		}
		return d.Members[i], nil
	}
}
