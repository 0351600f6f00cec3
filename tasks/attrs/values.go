package attrs

import "sort"

// Reader gives read access to named values
type Reader interface {
	Lookup(name string) (interface{}, bool)
}

// Writer gives write access to named values
type Writer interface {
	Assign(name string, value interface{}) error
}

// Values is a bag of named values
type Values map[string]interface{}

// Lookup a value by name
func (v Values) Lookup(name string) (interface{}, bool) {
	val, ok := v[name]
	return val, ok
}

// Clone makes a shallow copy, a nil bag clones into an empty one
func (v Values) Clone() Values {
	res := make(Values, len(v))
	for k, val := range v {
		res[k] = val
	}
	return res
}

// Slice returns a copy that only contains the provided names
func (v Values) Slice(names ...string) Values {
	res := make(Values, len(names))
	for _, n := range names {
		if val, ok := v[n]; ok {
			res[n] = val
		}
	}
	return res
}

// Merge the other values into this bag, the other values win
func (v Values) Merge(other Values) {
	for k, val := range other {
		v[k] = val
	}
}

// Names in sorted order
func (v Values) Names() []string {
	res := make([]string, 0, len(v))
	for k := range v {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
