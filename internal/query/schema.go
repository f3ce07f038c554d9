// Package query turns the string parameters of a list request into a composed
// read against one collection: a filter predicate, a sort order, a projection
// and a pagination window. It only describes the read; executing it is the
// repository's job.
package query

import "fmt"

// Kind is the value type of a field. It decides how filter values are
// converted and which operators apply.
type Kind uint8

const (
	String Kind = iota
	Number
	Bool
	Time
	List // JSON array column; equality means "contains"
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Time:
		return "date"
	case List:
		return "list"
	}
	return "string"
}

// Field maps a client-facing field name to a column.
type Field struct {
	Name   string
	Column string
	Kind   Kind
	// Hidden fields are left out of the default projection but can still be
	// requested explicitly.
	Hidden bool
}

// Schema is the allow-list of fields a collection exposes to query shaping.
// Names outside the schema never reach SQL.
type Schema struct {
	Table       string
	DefaultSort string // sort expression used when none is given, e.g. "-createdAt"

	fields []Field
	byName map[string]Field
}

// NewSchema panics on a duplicate field or a missing "id" field; schemas are
// package-level declarations, so this fails at init.
func NewSchema(table, defaultSort string, fields ...Field) *Schema {
	s := &Schema{Table: table, DefaultSort: defaultSort, byName: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			panic(fmt.Sprintf("query: duplicate field %q in schema %s", f.Name, table))
		}
		s.byName[f.Name] = f
		s.fields = append(s.fields, f)
	}
	if _, ok := s.byName[IDField]; !ok {
		panic(fmt.Sprintf("query: schema %s has no %q field", table, IDField))
	}
	return s
}

// IDField is always part of a projection.
const IDField = "id"

func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Fields returns every field in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// DefaultProjection is every field that is not Hidden.
func (s *Schema) DefaultProjection() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !f.Hidden {
			out = append(out, f)
		}
	}
	return out
}
