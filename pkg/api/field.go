package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// FieldSlot is the untyped view of a resource field. It is what a Resource
// holds and what refreshes write to; the typed read side lives on Field.
type FieldSlot interface {
	// Name returns the wire name of the field.
	Name() string

	// Set stores a raw value. Setting nil marks the field absent, matching
	// the treatment of JSON null.
	Set(raw interface{})

	// Clear marks the field absent.
	Clear()

	// HasValue reports whether a non-nil raw value is stored.
	HasValue() bool

	// Raw returns the stored raw value, or nil when absent.
	Raw() interface{}
}

// Field is a typed resource field. It stores the raw wire value untouched and
// converts on read, so a value that fails coercion still leaves the raw form
// inspectable. Conversion is a pure function of the raw value: reading twice
// yields the same result.
type Field[T any] struct {
	name    string
	coerce  func(interface{}) (T, error)
	raw     interface{}
	present bool
}

// NewField creates a field with the given wire name and coercion function.
func NewField[T any](name string, coerce func(interface{}) (T, error)) *Field[T] {
	return &Field[T]{name: name, coerce: coerce}
}

// Name returns the wire name of the field.
func (f *Field[T]) Name() string {
	return f.name
}

// Set stores a raw value. Nil marks the field absent.
func (f *Field[T]) Set(raw interface{}) {
	f.raw = raw
	f.present = raw != nil
}

// Clear marks the field absent.
func (f *Field[T]) Clear() {
	f.raw = nil
	f.present = false
}

// HasValue reports whether a non-nil raw value is stored.
func (f *Field[T]) HasValue() bool {
	return f.present
}

// Raw returns the stored raw value, or nil when absent.
func (f *Field[T]) Raw() interface{} {
	if !f.present {
		return nil
	}
	return f.raw
}

// Value converts the raw value to T. An absent field yields the zero value
// and no error. A raw value the coercion function rejects yields a
// type-coercion ClientError naming the field.
func (f *Field[T]) Value() (T, error) {
	var zero T
	if !f.present {
		return zero, nil
	}
	v, err := f.coerce(f.raw)
	if err != nil {
		return zero, NewTypeCoercionError(f.name, f.raw, err)
	}
	return v, nil
}

// CoerceString converts scalar raw values to their string form. Composite
// values (objects, arrays) are rejected.
func CoerceString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot represent %T as string", raw)
	}
}

// CoerceInt64 converts numeric raw values to int64. JSON numbers arrive as
// float64 and are accepted only when they carry no fractional part; numeric
// strings are parsed.
func CoerceInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", raw)
	}
}

// CoerceTime parses timestamp strings in any common format. Values that are
// already a time.Time pass through.
func CoerceTime(raw interface{}) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return dateparse.ParseAny(v)
	default:
		return time.Time{}, fmt.Errorf("cannot parse %T as timestamp", raw)
	}
}

// CoerceJSON decodes a JSON document carried as a string or byte slice.
// Values that are already decoded (the server returned structured JSON) pass
// through unchanged.
func CoerceJSON(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case string:
		return decodeJSON([]byte(v))
	case []byte:
		return decodeJSON(v)
	default:
		return raw, nil
	}
}

func decodeJSON(data []byte) (interface{}, error) {
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
