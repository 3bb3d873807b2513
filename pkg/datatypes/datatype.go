package datatypes

import (
	"fmt"
	"reflect"
)

// Kind identifies the primitive value kind of a DataType.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindEnum
	KindWaveform
	KindTable
)

// String returns the kind name.
func (k Kind) String() string {
	names := []string{
		"unknown", "int", "float", "bool", "string", "enum", "waveform", "table",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// DataType describes a value kind with bounds and display metadata.
// Implementations are immutable value types; sharing one descriptor across
// many attributes is safe.
type DataType interface {
	// Kind returns the primitive kind tag.
	Kind() Kind

	// InitialValue returns the default value for the kind.
	InitialValue() any

	// Validate coerces a raw value into the declared kind.
	// It returns a *ValidationError if the value cannot be coerced or
	// falls outside the declared bounds.
	Validate(value any) (any, error)
}

// ValidationError reports a value that failed datatype coercion or bounds.
type ValidationError struct {
	// Kind is the kind of the datatype the value was validated against.
	Kind Kind

	// Value is the raw value that failed.
	Value any

	// Reason describes why validation failed.
	Reason string
}

// Error returns the validation failure description.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value %v: %s", e.Kind, e.Value, e.Reason)
}

func validationErrorf(kind Kind, value any, format string, args ...any) error {
	return &ValidationError{Kind: kind, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// Equal compares two validated values for equality. Scalar kinds compare
// directly; Waveform and Table values compare element-wise.
func Equal(v1, v2 any) bool {
	return reflect.DeepEqual(v1, v2)
}

// Helper functions for numeric coercion.

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
