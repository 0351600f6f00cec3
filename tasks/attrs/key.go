package attrs

import (
	"fmt"
	"reflect"
)

// Key is a typed accessor for a named attribute.
// Declare keys once next to the step that uses them and use them for both the
// contract declaration and the reads and writes in the step body.
type Key[T any] string

// Name of the attribute
func (k Key[T]) Name() string { return string(k) }

// From reads the attribute, the bool is false when the value is absent or of a different type
func (k Key[T]) From(r Reader) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v, ok := r.Lookup(string(k))
	if !ok || v == nil {
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}

// Get reads the attribute or returns the zero value
func (k Key[T]) Get(r Reader) T {
	v, _ := k.From(r)
	return v
}

// Set writes the attribute
func (k Key[T]) Set(w Writer, value T) error {
	return w.Assign(string(k), value)
}

// Val pairs the key with a value, for building value bags
func (k Key[T]) Val(value T) Values {
	return Values{string(k): value}
}

// Required declares the key as a required attribute whose values must be a T
func (k Key[T]) Required(opts ...FieldOpt) Option {
	return Required(string(k), append([]FieldOpt{Check(isA[T])}, opts...)...)
}

// Optional declares the key as an optional attribute whose values must be a T
func (k Key[T]) Optional(opts ...FieldOpt) Option {
	return Optional(string(k), append([]FieldOpt{Check(isA[T])}, opts...)...)
}

func isA[T any](v interface{}) error {
	tpe := reflect.TypeOf((*T)(nil)).Elem()
	if v == nil {
		if tpe.Kind() == reflect.Interface {
			return nil
		}
		return fmt.Errorf("must be a %s, got nil", tpe)
	}
	if _, ok := v.(T); !ok {
		return fmt.Errorf("must be a %s, got %T", tpe, v)
	}
	return nil
}

// Merge combines several value bags, later bags win
func Merge(bags ...Values) Values {
	res := make(Values)
	for _, b := range bags {
		res.Merge(b)
	}
	return res
}
