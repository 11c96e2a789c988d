// Package optional provides a JSON field type that records whether a field was present in a
// request body and whether it was explicitly null. Partial updates are built from these instead of
// copying whichever fields happen to be non-zero.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a value of type T together with its presence. The zero value is an absent field.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a present, non-null field.
func Of[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

// Null returns a present field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// HasValue reports whether the field was present with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Get returns the value and whether it is usable.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.HasValue()
}

// UnmarshalJSON is only invoked by encoding/json when the key is present in the document, which is
// what makes absent and null distinguishable.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
