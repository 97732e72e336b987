package entity

import "encoding/json"

// Nullable is a tri-state input field: left out (Set == false), explicitly
// null (Set && !Valid), or carrying Value (Set && Valid).
type Nullable[T any] struct {
	Value T
	Valid bool
	Set   bool
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true, Set: true}
}

// Null returns a Nullable explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Ptr returns nil for null or unset, otherwise a pointer to a copy of Value.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value

	return &v
}

// UnmarshalJSON is only invoked when the key is present, which is what marks the field as Set.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		var zero T
		n.Value = zero
		n.Valid = false

		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true

	return nil
}

// MarshalJSON writes null for anything without a value.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(n.Value)
}
