// Package opt distinguishes an absent field from an explicit null and from a
// supplied value in partial updates.
package opt

import (
	"bytes"
	"encoding/json"
)

type Field[T any] struct {
	present bool
	null    bool
	value   T
}

func Absent[T any]() Field[T] {
	return Field[T]{}
}

func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

func Of[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Present is true for both null and a supplied value.
func (f Field[T]) Present() bool { return f.present }

func (f Field[T]) IsNull() bool { return f.present && f.null }

// Get returns the value only when one was supplied.
func (f Field[T]) Get() (T, bool) {
	if !f.present || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

func (f Field[T]) HasValue() bool {
	_, ok := f.Get()
	return ok
}

// UnmarshalJSON runs only for keys present in the document.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(b, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if v, ok := f.Get(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}
