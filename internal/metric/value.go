package metric

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a metric observation that is either a number or explicitly absent.
// The zero Value is absent.
type Value struct {
	v  float64
	ok bool
}

// Of returns a present Value.
func Of(v float64) Value {
	return Value{v: v, ok: true}
}

// Absent returns the absent Value.
func Absent() Value {
	return Value{}
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// IsPresent reports whether a number was observed.
func (v Value) IsPresent() bool {
	return v.ok
}

// OrZero returns the number, or 0 when absent. Only callers applying
// true-zero semantics should use it.
func (v Value) OrZero() float64 {
	if !v.ok {
		return 0
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "absent"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// MarshalJSON encodes absent as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
