package datatypes

import (
	"errors"
	"testing"
)

func int64p(n int64) *int64       { return &n }
func float64p(f float64) *float64 { return &f }

func TestIntValidate(t *testing.T) {
	tests := []struct {
		name    string
		dt      Int
		value   any
		want    any
		wantErr bool
	}{
		{"Int", Int{}, 42, int64(42), false},
		{"Int64", Int{}, int64(-7), int64(-7), false},
		{"Uint16", Int{}, uint16(9), int64(9), false},
		{"FloatTruncated", Int{}, 2.7, int64(2), false},
		{"String", Int{}, "3", nil, true},
		{"Bool", Int{}, true, nil, true},
		{"BelowMin", Int{Min: int64p(0)}, -1, nil, true},
		{"AtMin", Int{Min: int64p(0)}, 0, int64(0), false},
		{"AboveMax", Int{Max: int64p(10)}, 11, nil, true},
		{"AtMax", Int{Max: int64p(10)}, 10, int64(10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dt.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Validate(%v) = %v (%T), want %v (%T)", tt.value, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestFloatValidate(t *testing.T) {
	tests := []struct {
		name    string
		dt      Float
		value   any
		want    any
		wantErr bool
	}{
		{"Float", Float{}, 1.5, 1.5, false},
		{"Int", Float{}, 3, float64(3), false},
		{"Rounded", Float{Prec: 2}, 21.4567, 21.46, false},
		{"DefaultRoundsToTwoPlaces", Float{}, 21.4567, 21.46, false},
		{"OnePlace", Float{Prec: 1}, 21.4567, 21.5, false},
		{"NoRounding", Float{Prec: -1}, 21.4567, 21.4567, false},
		{"String", Float{}, "1.5", nil, true},
		{"BelowMin", Float{Min: float64p(0)}, -0.1, nil, true},
		{"AboveMax", Float{Max: float64p(1)}, 1.1, nil, true},
		{"RoundedIntoBounds", Float{Prec: 1, Max: float64p(1)}, 1.04, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dt.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Validate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestBoolValidate(t *testing.T) {
	if v, err := (Bool{}).Validate(true); err != nil || v != true {
		t.Errorf("Validate(true) = %v, %v", v, err)
	}
	if _, err := (Bool{}).Validate(1); err == nil {
		t.Error("Validate(1) expected error")
	}
}

func TestStringValidate(t *testing.T) {
	if _, err := (String{Length: 3}).Validate("abcd"); err == nil {
		t.Error("over-length string expected error")
	}
	if v, err := (String{Length: 3}).Validate("abc"); err != nil || v != "abc" {
		t.Errorf("Validate(abc) = %v, %v", v, err)
	}
}

func TestEnumValidate(t *testing.T) {
	dt := Enum{Members: []string{"Off", "On", "Fault"}}

	tests := []struct {
		name    string
		value   any
		want    any
		wantErr bool
	}{
		{"Member", "On", "On", false},
		{"Index", 2, "Fault", false},
		{"IndexZero", 0, "Off", false},
		{"UnknownMember", "Standby", nil, true},
		{"IndexOutOfRange", 3, nil, true},
		{"NegativeIndex", -1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dt.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Validate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	if _, err := (Enum{}).Validate("x"); err == nil {
		t.Error("empty enum expected error")
	}
}

func TestWaveformValidate(t *testing.T) {
	dt := Waveform{Element: KindFloat, MaxLength: 4}

	got, err := dt.Validate([]any{1, 2.5})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	elems := got.([]any)
	if len(elems) != 2 || elems[0] != float64(1) || elems[1] != 2.5 {
		t.Errorf("Validate = %v", elems)
	}

	if _, err := dt.Validate([]any{1, 2, 3, 4, 5}); err == nil {
		t.Error("over-length waveform expected error")
	}
	if _, err := dt.Validate([]any{"x"}); err == nil {
		t.Error("mistyped element expected error")
	}
	if _, err := dt.Validate("not a slice"); err == nil {
		t.Error("non-slice expected error")
	}
}

func TestTableValidate(t *testing.T) {
	dt := Table{Columns: []Column{
		{Name: "channel", Kind: KindInt},
		{Name: "gain", Kind: KindFloat},
	}}

	got, err := dt.Validate([]map[string]any{
		{"channel": 1, "gain": 2.5},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	rows := got.([]map[string]any)
	if rows[0]["channel"] != int64(1) || rows[0]["gain"] != 2.5 {
		t.Errorf("Validate = %v", rows)
	}

	if _, err := dt.Validate([]map[string]any{{"channel": 1}}); err == nil {
		t.Error("missing column expected error")
	}
	if _, err := dt.Validate([]map[string]any{{"channel": 1, "offset": 0.0}}); err == nil {
		t.Error("wrong column expected error")
	}
}

// Validation is idempotent: feeding a validated value back through Validate
// returns it unchanged.
func TestValidateIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		dt    DataType
		value any
	}{
		{"Int", Int{}, 42},
		{"Float", Float{Prec: 2}, 21.4567},
		{"Bool", Bool{}, true},
		{"String", String{}, "abc"},
		{"Enum", Enum{Members: []string{"A", "B"}}, 1},
		{"Waveform", Waveform{Element: KindInt}, []any{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, err := tt.dt.Validate(tt.value)
			if err != nil {
				t.Fatalf("first Validate: %v", err)
			}
			twice, err := tt.dt.Validate(once)
			if err != nil {
				t.Fatalf("second Validate: %v", err)
			}
			if !Equal(once, twice) {
				t.Errorf("Validate not idempotent: %v != %v", once, twice)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	_, err := Int{}.Validate("nope")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v is not a *ValidationError", err)
	}
	if verr.Kind != KindInt {
		t.Errorf("Kind = %v, want KindInt", verr.Kind)
	}
}

func TestInitialValues(t *testing.T) {
	if (Int{}).InitialValue() != int64(0) {
		t.Error("Int initial value")
	}
	if (Float{}).InitialValue() != float64(0) {
		t.Error("Float initial value")
	}
	if (Bool{}).InitialValue() != false {
		t.Error("Bool initial value")
	}
	if (String{}).InitialValue() != "" {
		t.Error("String initial value")
	}
	if (Enum{Members: []string{"A", "B"}}).InitialValue() != "A" {
		t.Error("Enum initial value")
	}
}
