package tasks

import (
	"bytes"
	"encoding/json"
)

// FieldState says what an update does with one field.
type FieldState uint8

const (
	// FieldUnchanged leaves the stored value alone.
	FieldUnchanged FieldState = iota
	// FieldCleared removes the stored value.
	FieldCleared
	// FieldSet replaces the stored value.
	FieldSet
)

func (s FieldState) String() string {
	switch s {
	case FieldCleared:
		return "cleared"
	case FieldSet:
		return "set"
	default:
		return "unchanged"
	}
}

// Field is an update value that can be absent, explicitly cleared or set.
// The zero value is unchanged.
//
// Decoded from JSON, an omitted key stays unchanged, null clears and any
// other literal sets.
type Field[T any] struct {
	state FieldState
	value T
}

// Unchanged returns a field that leaves the stored value alone.
func Unchanged[T any]() Field[T] {
	return Field[T]{}
}

// Clear returns a field that removes the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{state: FieldCleared}
}

// Set returns a field that replaces the stored value with v.
func Set[T any](v T) Field[T] {
	return Field[T]{state: FieldSet, value: v}
}

func (f Field[T]) State() FieldState { return f.state }

// Value returns the new value and whether the field is set.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.state == FieldSet
}

func (f Field[T]) IsUnchanged() bool { return f.state == FieldUnchanged }
func (f Field[T]) IsCleared() bool   { return f.state == FieldCleared }
func (f Field[T]) IsSet() bool       { return f.state == FieldSet }

// UnmarshalJSON is only called for keys present in the payload.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}
