// Package datatypes defines the value descriptors used by Strand attributes.
//
// A DataType describes a primitive value kind along with metadata such as
// numeric bounds, display precision, enum members or array shape. Its
// Validate method coerces a raw value into the declared kind or reports a
// *ValidationError.
//
// # Kinds
//
//	Int      signed integer with optional bounds and units
//	Float    floating point with optional bounds, units and precision
//	Bool     boolean
//	String   string with optional maximum length
//	Enum     one of a fixed set of named members
//	Waveform 1-D array of a scalar element kind
//	Table    rows of named, typed columns
//
// # Validation
//
// Validate is pure and deterministic. It never mutates shared state and is
// idempotent: validating an already-validated value returns it unchanged.
// Numeric kinds coerce across Go's integer and float types; Enum accepts
// either a member name or an index into the member list.
package datatypes
