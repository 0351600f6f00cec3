package attrs

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"
)

// Type is a JSON-ish type name for attributes that aren't declared through a typed Key
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeNull    Type = "null"
	TypeAny     Type = "any"
)

// ErrInvalidDefault is the panic value cause for a JSON default that doesn't parse
var ErrInvalidDefault = errors.New("invalid default value")

// OfType is a rule that checks the value has the given type
func OfType(t Type) Rule {
	return func(v interface{}) error {
		if matchesType(t, v) {
			return nil
		}
		return fmt.Errorf("must be of type %s", t)
	}
}

func matchesType(t Type, v interface{}) bool {
	if t == TypeAny {
		return true
	}
	if v == nil {
		return t == TypeNull
	}
	rv := reflect.ValueOf(v)
	switch t {
	case TypeString:
		return rv.Kind() == reflect.String
	case TypeBoolean:
		return rv.Kind() == reflect.Bool
	case TypeNumber:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case TypeObject:
		return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct ||
			(rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.Struct)
	case TypeArray:
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	case TypeNull:
		return false
	default:
		return false
	}
}

// DefaultJSON parses a JSON literal as the default value of an optional attribute.
// Numbers decode as float64, objects as map[string]interface{} and arrays as []interface{}.
func DefaultJSON(raw string) FieldOpt {
	if !gjson.Valid(raw) {
		panic(fmt.Errorf("%w: %q is not valid JSON", ErrInvalidDefault, raw))
	}
	return Default(gjson.Parse(raw).Value())
}
