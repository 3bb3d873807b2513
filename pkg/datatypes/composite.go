package datatypes

// scalarOf returns the bare descriptor for a scalar kind, used to validate
// Waveform elements and Table cells.
func scalarOf(kind Kind) (DataType, bool) {
	switch kind {
	case KindInt:
		return Int{}, true
	case KindFloat:
		return Float{}, true
	case KindBool:
		return Bool{}, true
	case KindString:
		return String{}, true
	default:
		return nil, false
	}
}

// Waveform is a DataType holding a 1-D array of a scalar element kind.
type Waveform struct {
	// Element is the scalar kind of each array element.
	Element Kind

	// MaxLength is the maximum number of elements. Zero means unbounded.
	MaxLength int
}

// Kind returns KindWaveform.
func (Waveform) Kind() Kind { return KindWaveform }

// InitialValue returns an empty array.
func (Waveform) InitialValue() any { return []any{} }

// Validate accepts a []any whose elements each validate against the
// element kind. The returned slice holds the coerced elements.
func (d Waveform) Validate(value any) (any, error) {
	elems, ok := value.([]any)
	if !ok {
		return nil, validationErrorf(KindWaveform, value, "expected []any, got %T", value)
	}
	if d.MaxLength > 0 && len(elems) > d.MaxLength {
		return nil, validationErrorf(KindWaveform, value, "longer than %d elements", d.MaxLength)
	}
	scalar, ok := scalarOf(d.Element)
	if !ok {
		return nil, validationErrorf(KindWaveform, value, "unsupported element kind %s", d.Element)
	}
	out := make([]any, len(elems))
	for i, elem := range elems {
		coerced, err := scalar.Validate(elem)
		if err != nil {
			return nil, validationErrorf(KindWaveform, value, "element %d: %v", i, err)
		}
		out[i] = coerced
	}
	return out, nil
}

// Column describes one named, typed column of a Table.
type Column struct {
	// Name is the column name.
	Name string

	// Kind is the scalar kind of the column's cells.
	Kind Kind
}

// Table is a DataType holding rows of named, typed columns.
type Table struct {
	// Columns is the ordered column specification.
	Columns []Column
}

// Kind returns KindTable.
func (Table) Kind() Kind { return KindTable }

// InitialValue returns an empty row set.
func (Table) InitialValue() any { return []map[string]any{} }

// Validate accepts a []map[string]any where every row supplies exactly the
// declared columns, each cell validating against its column kind.
func (d Table) Validate(value any) (any, error) {
	rows, ok := value.([]map[string]any)
	if !ok {
		return nil, validationErrorf(KindTable, value, "expected []map[string]any, got %T", value)
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		if len(row) != len(d.Columns) {
			return nil, validationErrorf(KindTable, value, "row %d: expected %d columns, got %d", i, len(d.Columns), len(row))
		}
		coercedRow := make(map[string]any, len(d.Columns))
		for _, col := range d.Columns {
			cell, exists := row[col.Name]
			if !exists {
				return nil, validationErrorf(KindTable, value, "row %d: missing column %q", i, col.Name)
			}
			scalar, ok := scalarOf(col.Kind)
			if !ok {
				return nil, validationErrorf(KindTable, value, "column %q: unsupported kind %s", col.Name, col.Kind)
			}
			coerced, err := scalar.Validate(cell)
			if err != nil {
				return nil, validationErrorf(KindTable, value, "row %d, column %q: %v", i, col.Name, err)
			}
			coercedRow[col.Name] = coerced
		}
		out[i] = coercedRow
	}
	return out, nil
}
