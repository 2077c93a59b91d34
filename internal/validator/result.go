package validator

import (
	"fmt"
	"html"
)

// Result records the outcome of a single check.
type Result struct {
	// Success reports whether the value satisfied the constraint.
	Success bool
	// Type is the check kind: int, float, string, bool, enum or polar.
	Type string
	// TypeDesc is the human-readable name of the value being checked.
	TypeDesc string
	// Constraint is the constraint the value was checked against.
	Constraint any
	// Raw is the value as it was passed in.
	Raw any
	// Value is the coerced value when casting was requested, Raw otherwise.
	Value any
	// Cast reports whether Value holds a coerced value.
	Cast bool
}

func (r Result) String() string {
	if r.Success {
		return fmt.Sprintf("OK: %s %q is a valid %s constrained to %v.",
			r.TypeDesc, display(r.Raw), r.Type, constraintText(r.Constraint))
	}
	return fmt.Sprintf("FAILED: %s %q is not a valid %s constrained to %v.",
		r.TypeDesc, display(r.Raw), r.Type, constraintText(r.Constraint))
}

// HTML renders the result as a paragraph, escaping the untrusted raw value.
func (r Result) HTML() string {
	class := "dv-success"
	if !r.Success {
		class = "dv-error"
	}
	return fmt.Sprintf(`<p class=%q>%s</p>`, class, html.EscapeString(r.String()))
}

func display(v any) string {
	return fmt.Sprintf("%v", v)
}

func constraintText(c any) string {
	switch x := c.(type) {
	case nil:
		return "any value"
	case *bool:
		if x == nil {
			return "any boolean"
		}
		return fmt.Sprintf("%v", *x)
	case Enum:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		return fmt.Sprintf("one of %v", keys)
	case Polar:
		return fmt.Sprintf("%v / %v", x.Truthy, x.Falsy)
	default:
		return fmt.Sprintf("%v", c)
	}
}
