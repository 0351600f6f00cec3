package attrs

import (
	"fmt"
	"sort"
	"strings"
)

// Contract is what the execution engine needs from an attribute contract
type Contract interface {
	// Validate the proposed values, the accepted values have defaults applied.
	// A rejection is reported as a *ValidationError.
	Validate(proposed Values) (Values, error)
	RequiredNames() []string
	OptionalNames() []string
}

// Policy for names that are not declared in a contract
type Policy uint8

const (
	// Reject fails validation for every unknown name
	Reject Policy = iota
	// Drop removes unknown names from the accepted values
	Drop
)

func (p Policy) String() string {
	if p == Drop {
		return "drop"
	}
	return "reject"
}

// Reasons reported in field errors
const (
	ReasonMissing = "is required"
	ReasonUnknown = "is not a declared attribute"
)

// Rule checks a single value
type Rule func(interface{}) error

type field struct {
	name       string
	required   bool
	def        interface{}
	hasDefault bool
	rules      []Rule
}

// Option configures a schema
type Option func(*Schema)

// FieldOpt configures a single attribute
type FieldOpt func(*field)

// Required attribute, validation fails when it is absent
func Required(name string, opts ...FieldOpt) Option {
	return func(s *Schema) { s.add(&field{name: name, required: true}, opts) }
}

// Optional attribute, it may be absent or have a default
func Optional(name string, opts ...FieldOpt) Option {
	return func(s *Schema) { s.add(&field{name: name}, opts) }
}

// Unknown sets the policy for undeclared names
func Unknown(p Policy) Option {
	return func(s *Schema) { s.policy = p }
}

// Default value for an optional attribute that wasn't provided
func Default(v interface{}) FieldOpt {
	return func(f *field) {
		f.def = v
		f.hasDefault = true
	}
}

// Check adds validation rules to the attribute, rules are run in order and all failures are reported
func Check(rules ...Rule) FieldOpt {
	return func(f *field) { f.rules = append(f.rules, rules...) }
}

// Schema is the default Contract implementation
type Schema struct {
	fields []*field
	index  map[string]*field
	policy Policy
}

// New creates a schema, declaring a name twice or an empty name panics
func New(opts ...Option) *Schema {
	s := &Schema{index: make(map[string]*field)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Empty is a schema without attributes that rejects every name
func Empty() *Schema { return New() }

func (s *Schema) add(f *field, opts []FieldOpt) {
	if strings.TrimSpace(f.name) == "" {
		panic("an attribute needs a name")
	}
	if _, ok := s.index[f.name]; ok {
		panic(fmt.Sprintf("attribute %q is declared more than once", f.name))
	}
	for _, o := range opts {
		o(f)
	}
	if f.hasDefault && f.required {
		panic(fmt.Sprintf("attribute %q is required, only optional attributes can have a default", f.name))
	}
	if f.hasDefault && f.def != nil {
		for _, r := range f.rules {
			if err := r(f.def); err != nil {
				panic(fmt.Sprintf("default for attribute %q %v", f.name, err))
			}
		}
	}
	s.fields = append(s.fields, f)
	s.index[f.name] = f
}

// Policy for unknown names
func (s *Schema) Policy() Policy { return s.policy }

// Has returns true when the name is declared
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// RequiredNames in declaration order
func (s *Schema) RequiredNames() []string {
	var res []string
	for _, f := range s.fields {
		if f.required {
			res = append(res, f.name)
		}
	}
	return res
}

// OptionalNames in declaration order
func (s *Schema) OptionalNames() []string {
	var res []string
	for _, f := range s.fields {
		if !f.required {
			res = append(res, f.name)
		}
	}
	return res
}

// Defaults for the optional attributes that have one
func (s *Schema) Defaults() Values {
	res := make(Values)
	for _, f := range s.fields {
		if f.hasDefault {
			res[f.name] = f.def
		}
	}
	return res
}

// Validate the proposed values against the schema
func (s *Schema) Validate(proposed Values) (Values, error) {
	accepted := make(Values, len(s.fields))
	fe := make(FieldErrors)

	for _, f := range s.fields {
		v, ok := proposed[f.name]
		if !ok {
			switch {
			case f.required:
				fe.Add(f.name, ReasonMissing)
			case f.hasDefault:
				accepted[f.name] = f.def
			}
			continue
		}
		for _, r := range f.rules {
			if err := r(v); err != nil {
				fe.Add(f.name, err.Error())
			}
		}
		accepted[f.name] = v
	}

	for name := range proposed {
		if _, ok := s.index[name]; ok {
			continue
		}
		if s.policy == Reject {
			fe.Add(name, ReasonUnknown)
		}
	}

	if len(fe) > 0 {
		return nil, &ValidationError{Fields: fe}
	}
	return accepted, nil
}

// FieldErrors maps attribute names to the reasons they were rejected
type FieldErrors map[string][]string

// Add a reason for the named attribute
func (f FieldErrors) Add(name, reason string) {
	f[name] = append(f[name], reason)
}

// Names of the rejected attributes in sorted order
func (f FieldErrors) Names() []string {
	res := make([]string, 0, len(f))
	for k := range f {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// With returns the sorted names that were rejected for the given reason
func (f FieldErrors) With(reason string) []string {
	var res []string
	for _, name := range f.Names() {
		for _, r := range f[name] {
			if r == reason {
				res = append(res, name)
				break
			}
		}
	}
	return res
}

// ValidationError is returned when a contract rejects the proposed values
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("attributes failed validation:")
	for _, name := range v.Fields.Names() {
		fmt.Fprintf(&b, " %s %s;", name, strings.Join(v.Fields[name], ", "))
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Missing names of required attributes that weren't provided
func (v *ValidationError) Missing() []string { return v.Fields.With(ReasonMissing) }

// Unknown names that the contract doesn't declare
func (v *ValidationError) Unknown() []string { return v.Fields.With(ReasonUnknown) }
