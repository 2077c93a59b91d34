package schema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

// Record holds the values collected for one response against a Spec. Values
// are addressed by dotted "group.field" paths and validated on Set.
type Record struct {
	spec *Spec
	data map[string]any
}

// NewRecord materialises an empty record for the spec. It panics if the spec
// was never built.
func (s *Spec) NewRecord() *Record {
	if s.index == nil {
		panic(fmt.Sprintf("schema: spec %q used before Build", s.Task))
	}
	return &Record{spec: s, data: make(map[string]any)}
}

// Spec returns the spec the record was created from.
func (r *Record) Spec() *Spec {
	return r.spec
}

// Set validates value against the field declared at path and stores the cast
// value. For Multiple fields value must be a slice and every element is
// checked. A failed check returns a *validator.ValidationError and leaves the
// record unchanged.
func (r *Record) Set(path string, value any) error {
	f, ok := r.spec.Lookup(path)
	if !ok {
		return fmt.Errorf("schema: spec %q has no field %q", r.spec.Task, path)
	}
	if f.Multiple {
		elems, err := toSlice(value)
		if err != nil {
			return fmt.Errorf("schema: field %q: %w", path, err)
		}
		v := validator.New(r.spec.ForceCast, r.spec.IgnoreCase)
		cast := make([]any, len(elems))
		for i, e := range elems {
			res := check(v, f, e)
			cast[i] = res.Value
		}
		if err := v.Err(); err != nil {
			return err
		}
		r.data[path] = cast
		return nil
	}
	v := validator.New(r.spec.ForceCast, r.spec.IgnoreCase)
	res := check(v, f, value)
	if err := v.Err(); err != nil {
		return err
	}
	r.data[path] = res.Value
	return nil
}

func check(v *validator.Validator, f Field, value any) validator.Result {
	desc := f.TypeDesc
	if desc == "" {
		desc = f.Name
	}
	switch f.Type {
	case "int":
		return v.CheckInt(desc, f.Constraint.(validator.Range), value)
	case "float":
		return v.CheckFloat(desc, f.Constraint.(validator.Range), value)
	case "string":
		return v.CheckString(desc, f.Constraint.(string), value)
	case "bool":
		var want *bool
		switch c := f.Constraint.(type) {
		case *bool:
			want = c
		case bool:
			want = &c
		}
		return v.CheckBool(desc, want, value)
	case "enum":
		return v.CheckEnum(desc, f.Constraint.(validator.Enum), value)
	case "polar":
		return v.CheckPolar(desc, f.Constraint.(validator.Polar), value)
	}
	panic("schema: unreachable field type " + f.Type)
}

// Unset removes the value at path, if any.
func (r *Record) Unset(path string) {
	delete(r.data, path)
}

// Get returns the value stored at path.
func (r *Record) Get(path string) (any, bool) {
	v, ok := r.data[path]
	return v, ok
}

func (r *Record) listLen(path string) int {
	v, ok := r.data[path]
	if !ok {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return 0
	}
	return rv.Len()
}

// HasGroup reports whether any field of the named group has a value.
func (r *Record) HasGroup(group string) bool {
	for _, g := range r.spec.Groups {
		if g.Name != group {
			continue
		}
		for _, f := range g.Fields {
			if _, ok := r.data[g.Name+"."+f.Name]; ok {
				return true
			}
		}
	}
	return false
}

// Missing returns the dotted paths of absent fields, in declaration order
// with rule-derived paths appended. With requiredOnly it reports required
// fields that are absent, required Multiple fields that are empty, and
// whatever the cross-field rules add; otherwise every absent field.
func (r *Record) Missing(requiredOnly bool) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, g := range r.spec.Groups {
		for _, f := range g.Fields {
			path := g.Name + "." + f.Name
			if requiredOnly && !f.Required {
				continue
			}
			if _, ok := r.data[path]; !ok {
				missing = append(missing, path)
				seen[path] = true
			} else if f.Multiple && f.Required && r.listLen(path) == 0 {
				missing = append(missing, path)
				seen[path] = true
			}
		}
	}
	if requiredOnly {
		for _, rule := range r.spec.Rules {
			for _, path := range rule.missing(r) {
				if !seen[path] {
					missing = append(missing, path)
					seen[path] = true
				}
			}
		}
	}
	return missing
}

// IsComplete reports whether every required field and cross-field rule is
// satisfied.
func (r *Record) IsComplete() bool {
	return len(r.Missing(true)) == 0
}

// Data returns the record as a nested group→field→value map. With
// includeMissing, absent fields appear with nil values.
func (r *Record) Data(includeMissing bool) map[string]any {
	out := make(map[string]any, len(r.spec.Groups))
	for _, g := range r.spec.Groups {
		section := make(map[string]any)
		for _, f := range g.Fields {
			path := g.Name + "." + f.Name
			if v, ok := r.data[path]; ok {
				section[path[len(g.Name)+1:]] = v
			} else if includeMissing {
				section[f.Name] = nil
			}
		}
		if len(section) > 0 || includeMissing {
			out[g.Name] = section
		}
	}
	return out
}

// Validate re-checks every stored value and the cross-field rules, returning
// a *validator.ValidationError describing all failures.
func (r *Record) Validate() error {
	v := validator.New(r.spec.ForceCast, r.spec.IgnoreCase)
	paths := make([]string, 0, len(r.data))
	for path := range r.data {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		f, ok := r.spec.Lookup(path)
		if !ok {
			continue
		}
		if f.Multiple {
			elems, err := toSlice(r.data[path])
			if err != nil {
				continue
			}
			for _, e := range elems {
				check(v, f, e)
			}
			continue
		}
		check(v, f, r.data[path])
	}
	return v.Err()
}

func toSlice(value any) ([]any, error) {
	if elems, ok := value.([]any); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, nil
}
