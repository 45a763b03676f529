// Package model defines the static description of an operator.
//
// A Schema names an operator and lists its arguments and returns. Schemas are
// immutable once built and are consumed at dispatch table construction time:
// the table derives its display name from the schema's OperatorName and builds
// its KeyExtractor from the argument list.
//
// Key data structures:
//   - OperatorName: namespaced name plus optional overload
//   - Argument: a named, typed formal parameter or return value
//   - Schema: complete operator signature
//   - KeyExtractor: which arguments participate in dispatch key computation
package model

import (
	"errors"
	"fmt"
	"strings"
)

// TypeTensor is the argument type that participates in dispatch.
const TypeTensor = "Tensor"

// OperatorName identifies an operator, e.g. {Name: "aten::add", Overload: "Tensor"}.
type OperatorName struct {
	Name     string
	Overload string
}

// String renders "name" or "name.overload".
func (n OperatorName) String() string {
	if n.Overload == "" {
		return n.Name
	}
	return n.Name + "." + n.Overload
}

// Argument is a formal parameter or return value.
type Argument struct {
	Name string
	Type string
}

// IsTensor reports whether the argument carries a tensor, optionally as a
// list ("Tensor[]") or optional ("Tensor?").
func (a Argument) IsTensor() bool {
	t := strings.TrimSpace(a.Type)
	t = strings.TrimSuffix(t, "?")
	t = strings.TrimSuffix(t, "[]")
	return t == TypeTensor
}

// Schema is the static signature of an operator.
type Schema struct {
	Operator  OperatorName
	Arguments []Argument
	Returns   []Argument
}

// NewSchema builds a schema and validates it.
func NewSchema(name, overload string, args, returns []Argument) (Schema, error) {
	s := Schema{
		Operator:  OperatorName{Name: name, Overload: overload},
		Arguments: append([]Argument(nil), args...),
		Returns:   append([]Argument(nil), returns...),
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Validate checks that the schema has a name and that argument names are
// present and unique.
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Operator.Name) == "" {
		return errors.New("schema missing operator name")
	}
	seen := make(map[string]struct{}, len(s.Arguments))
	for i, a := range s.Arguments {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("schema %s: argument %d has no name", s.Operator, i)
		}
		if strings.TrimSpace(a.Type) == "" {
			return fmt.Errorf("schema %s: argument %q has no type", s.Operator, a.Name)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("schema %s: duplicate argument %q", s.Operator, a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// String renders the schema as "name.overload(Type a, Type b) -> (Type)".
func (s Schema) String() string {
	var b strings.Builder
	b.WriteString(s.Operator.String())
	b.WriteByte('(')
	for i, a := range s.Arguments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Type)
		b.WriteByte(' ')
		b.WriteString(a.Name)
	}
	b.WriteString(") -> ")
	if len(s.Returns) == 1 {
		b.WriteString(s.Returns[0].Type)
		return b.String()
	}
	b.WriteByte('(')
	for i, r := range s.Returns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.Type)
	}
	b.WriteByte(')')
	return b.String()
}
