// Package schema declares the field tables that describe a task's response
// data. A Spec is declared once per task as a package-level value, frozen by
// Build, and materialises empty Records whose fields are validated on Set.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

// Field declares a single value slot within a group.
type Field struct {
	Name       string
	Type       string // int, float, string, bool, enum or polar
	TypeDesc   string
	Constraint any
	Required   bool
	// Multiple marks a list-valued field. Set expects a slice and each
	// element is checked individually.
	Multiple bool
}

// Group is a named collection of fields. Nesting is exactly one level deep:
// records address values as "group.field".
type Group struct {
	Name   string
	Fields []Field
}

// Spec is the frozen field table for one task.
type Spec struct {
	Task   string
	Groups []Group
	Rules  []Rule

	// ForceCast and IgnoreCase seed the validator options used on Set.
	ForceCast  bool
	IgnoreCase bool

	index map[string]Field
}

// Build validates the declaration and freezes the field index. It must be
// called exactly once before any record is created.
func (s *Spec) Build() (*Spec, error) {
	if s.Task == "" {
		return nil, fmt.Errorf("schema: spec has no task name")
	}
	if s.index != nil {
		return nil, fmt.Errorf("schema: spec %q already built", s.Task)
	}
	idx := make(map[string]Field)
	for _, g := range s.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("schema: spec %q has an unnamed group", s.Task)
		}
		for _, f := range g.Fields {
			if err := checkField(f); err != nil {
				return nil, fmt.Errorf("schema: spec %q group %q: %w", s.Task, g.Name, err)
			}
			path := g.Name + "." + f.Name
			if _, dup := idx[path]; dup {
				return nil, fmt.Errorf("schema: spec %q duplicate field %q", s.Task, path)
			}
			idx[path] = f
		}
	}
	for _, r := range s.Rules {
		for _, path := range r.paths() {
			if _, ok := idx[path]; !ok {
				return nil, fmt.Errorf("schema: spec %q rule references unknown field %q", s.Task, path)
			}
		}
	}
	s.index = idx
	return s, nil
}

// MustBuild is Build for package-level spec declarations.
func MustBuild(s *Spec) *Spec {
	built, err := s.Build()
	if err != nil {
		panic(err)
	}
	return built
}

func checkField(f Field) error {
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	switch f.Type {
	case "int", "float":
		if _, ok := f.Constraint.(validator.Range); !ok {
			return fmt.Errorf("field %q: %s constraint must be a Range", f.Name, f.Type)
		}
	case "string":
		if _, ok := f.Constraint.(string); !ok {
			return fmt.Errorf("field %q: string constraint must be a pattern", f.Name)
		}
	case "bool":
		switch f.Constraint.(type) {
		case nil, *bool, bool:
		default:
			return fmt.Errorf("field %q: bool constraint must be nil or a bool", f.Name)
		}
	case "enum":
		if _, ok := f.Constraint.(validator.Enum); !ok {
			return fmt.Errorf("field %q: enum constraint must be an Enum", f.Name)
		}
	case "polar":
		if _, ok := f.Constraint.(validator.Polar); !ok {
			return fmt.Errorf("field %q: polar constraint must be a Polar", f.Name)
		}
	default:
		return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
	}
	return nil
}

// Lookup returns the field declared at the dotted path.
func (s *Spec) Lookup(path string) (Field, bool) {
	f, ok := s.index[path]
	return f, ok
}

// Paths returns every declared field path in group order.
func (s *Spec) Paths() []string {
	paths := make([]string, 0, len(s.index))
	for _, g := range s.Groups {
		for _, f := range g.Fields {
			paths = append(paths, g.Name+"."+f.Name)
		}
	}
	return paths
}

// Rule is a cross-field constraint evaluated against a whole record.
type Rule interface {
	// missing returns the dotted paths the rule considers missing or
	// inconsistent on the given record.
	missing(r *Record) []string
	paths() []string
}

// RequiredIf makes Field required whenever the value at When equals Equals.
type RequiredIf struct {
	Field  string
	When   string
	Equals any
}

func (c RequiredIf) paths() []string { return []string{c.Field, c.When} }

func (c RequiredIf) missing(r *Record) []string {
	v, ok := r.Get(c.When)
	if !ok || !looseEqual(v, c.Equals) {
		return nil
	}
	if _, ok := r.Get(c.Field); !ok {
		return []string{c.Field}
	}
	return nil
}

// EqualLen requires the listed multiple-valued fields to hold the same number
// of elements.
type EqualLen struct {
	Fields []string
}

func (c EqualLen) paths() []string { return c.Fields }

func (c EqualLen) missing(r *Record) []string {
	want := -1
	uneven := false
	for _, path := range c.Fields {
		n := r.listLen(path)
		if want == -1 {
			want = n
		} else if n != want {
			uneven = true
		}
	}
	if !uneven {
		return nil
	}
	out := append([]string(nil), c.Fields...)
	sort.Strings(out)
	return out
}

func looseEqual(a, b any) bool {
	if a == b {
		return true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.EqualFold(as, bs)
	}
	return false
}
