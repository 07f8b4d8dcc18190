package api

import (
	"errors"
	"testing"
	"time"
)

func TestField_AbsentYieldsZeroValue(t *testing.T) {
	f := NewField("status", CoerceString)

	if f.HasValue() {
		t.Error("Expected a fresh field to be absent")
	}

	v, err := f.Value()
	if err != nil {
		t.Fatalf("Expected no error for an absent field, got: %v", err)
	}
	if v != "" {
		t.Errorf("Expected zero value, got %q", v)
	}
}

func TestField_NilMarksAbsent(t *testing.T) {
	f := NewField("status", CoerceString)
	f.Set("queued")
	if !f.HasValue() {
		t.Fatal("Expected field to have a value")
	}

	f.Set(nil)
	if f.HasValue() {
		t.Error("Expected nil to mark the field absent")
	}
	if f.Raw() != nil {
		t.Errorf("Expected nil raw value, got %v", f.Raw())
	}
}

func TestField_ValueIsIdempotent(t *testing.T) {
	f := NewField("id", CoerceInt64)
	f.Set(float64(29583))

	first, err := f.Value()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := f.Value()
	if err != nil {
		t.Fatalf("Expected no error on reread, got: %v", err)
	}
	if first != second || first != 29583 {
		t.Errorf("Expected stable value 29583, got %d then %d", first, second)
	}
	if f.Raw() != float64(29583) {
		t.Errorf("Expected raw value to stay untouched, got %v", f.Raw())
	}
}

func TestField_CoercionFailureKeepsRaw(t *testing.T) {
	f := NewField("id", CoerceInt64)
	f.Set("not-a-number")

	_, err := f.Value()
	if err == nil {
		t.Fatal("Expected a coercion error")
	}
	if !IsTypeCoercion(err) {
		t.Errorf("Expected a type-coercion error, got: %v", err)
	}

	var cerr *ClientError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected a *ClientError, got %T", err)
	}
	if cerr.Field != "id" {
		t.Errorf("Expected error to name field id, got %q", cerr.Field)
	}
	if cerr.Details["raw"] != "not-a-number" {
		t.Errorf("Expected raw value in details, got %v", cerr.Details["raw"])
	}
	if f.Raw() != "not-a-number" {
		t.Errorf("Expected raw value to stay inspectable, got %v", f.Raw())
	}
}

func TestCoerceString(t *testing.T) {
	cases := []struct {
		raw     interface{}
		want    string
		wantErr bool
	}{
		{"queued", "queued", false},
		{float64(3), "3", false},
		{float64(2.5), "2.5", false},
		{int64(17), "17", false},
		{true, "true", false},
		{map[string]interface{}{}, "", true},
		{[]interface{}{1, 2}, "", true},
	}

	for _, tc := range cases {
		got, err := CoerceString(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("CoerceString(%v): expected an error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("CoerceString(%v): unexpected error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CoerceString(%v): expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestCoerceInt64(t *testing.T) {
	cases := []struct {
		raw     interface{}
		want    int64
		wantErr bool
	}{
		{float64(29583), 29583, false},
		{int(7), 7, false},
		{int64(7), 7, false},
		{"42", 42, false},
		{float64(2.5), 0, true},
		{"forty-two", 0, true},
		{true, 0, true},
	}

	for _, tc := range cases {
		got, err := CoerceInt64(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("CoerceInt64(%v): expected an error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("CoerceInt64(%v): unexpected error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CoerceInt64(%v): expected %d, got %d", tc.raw, tc.want, got)
		}
	}
}

func TestCoerceTime(t *testing.T) {
	got, err := CoerceTime("2019-05-24T15:55:43.872531Z")
	if err != nil {
		t.Fatalf("Expected RFC 3339 to parse, got: %v", err)
	}
	if got.Year() != 2019 || got.Month() != time.May {
		t.Errorf("Unexpected parse result: %v", got)
	}

	// Other common server formats parse too
	if _, err := CoerceTime("2019-05-24 15:55:43"); err != nil {
		t.Errorf("Expected space-separated format to parse, got: %v", err)
	}

	if _, err := CoerceTime("not a timestamp"); err == nil {
		t.Error("Expected garbage to fail")
	}
	if _, err := CoerceTime(float64(12)); err == nil {
		t.Error("Expected a number to fail")
	}

	now := time.Now()
	passthrough, err := CoerceTime(now)
	if err != nil || !passthrough.Equal(now) {
		t.Errorf("Expected time.Time passthrough, got %v, %v", passthrough, err)
	}
}

func TestCoerceJSON(t *testing.T) {
	decoded, err := CoerceJSON(`[[0, 0], [1, 1]]`)
	if err != nil {
		t.Fatalf("Expected JSON string to decode, got: %v", err)
	}
	rows, ok := decoded.([]interface{})
	if !ok || len(rows) != 2 {
		t.Errorf("Expected two rows, got %v", decoded)
	}

	if _, err := CoerceJSON("{broken"); err == nil {
		t.Error("Expected malformed JSON to fail")
	}

	// Already-decoded values pass through
	structured := map[string]interface{}{"samples": []interface{}{1.0}}
	passthrough, err := CoerceJSON(structured)
	if err != nil {
		t.Fatalf("Expected passthrough, got: %v", err)
	}
	if _, ok := passthrough.(map[string]interface{}); !ok {
		t.Errorf("Expected the decoded value unchanged, got %T", passthrough)
	}
}
