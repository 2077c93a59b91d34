// Package validator provides single-value type-and-constraint checks.
//
// Every check is total: failures are reported through the returned Result,
// never as an error. A Validator aggregates Results so that a whole form
// section can be checked before deciding whether to fail, and Err() converts
// any accumulated failures into a single ValidationError for the boundary.
package validator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Range is an inclusive numeric range. Lo and Hi need not be ordered; checks
// use min(Lo,Hi) <= x <= max(Lo,Hi).
type Range struct {
	Lo float64
	Hi float64
}

func (r Range) contains(x float64) bool {
	lo, hi := r.Lo, r.Hi
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo <= x && x <= hi
}

func (r Range) String() string {
	return fmt.Sprintf("(%v, %v)", r.Lo, r.Hi)
}

// Enum maps acceptable input keys to canonical values. Both keys and values
// are acceptable inputs; casting always yields the canonical value.
type Enum map[string]string

// Polar is an ordered pair of term sets; membership in Truthy casts to true,
// membership in Falsy casts to false.
type Polar struct {
	Truthy []any
	Falsy  []any
}

// BoolPolar is the fixed polar pair used for boolean casting throughout the
// app (form checkboxes, yes/no radios, numeric flags).
var BoolPolar = Polar{
	Truthy: []any{true, "true", "on", "yes", 1, "1"},
	Falsy:  []any{false, "false", "off", "no", 0, "0"},
}

// Validator accumulates the Results of a series of checks.
type Validator struct {
	// ForceCast records the coerced value in each Result so callers can use
	// the validated value for storage.
	ForceCast bool
	// IgnoreCase makes string, enum and polar comparisons case-insensitive.
	IgnoreCase bool

	Results    []Result
	Failed     []Result
	Successful []Result
}

// New returns a Validator with the given casting and case options.
func New(forceCast, ignoreCase bool) *Validator {
	return &Validator{ForceCast: forceCast, IgnoreCase: ignoreCase}
}

func (v *Validator) store(r Result) Result {
	v.Results = append(v.Results, r)
	if r.Success {
		v.Successful = append(v.Successful, r)
	} else {
		v.Failed = append(v.Failed, r)
	}
	return r
}

// CheckInt validates an integer against an inclusive range.
func (v *Validator) CheckInt(name string, c Range, value any) Result {
	n, ok := toInt(value)
	r := Result{
		Type:       "int",
		TypeDesc:   name,
		Constraint: c,
		Raw:        value,
		Cast:       v.ForceCast,
	}
	r.Success = ok && c.contains(float64(n))
	if ok && v.ForceCast {
		r.Value = n
	} else {
		r.Value = value
	}
	return v.store(r)
}

// CheckFloat validates a float against an inclusive range. NaN and ±Inf are
// always rejected.
func (v *Validator) CheckFloat(name string, c Range, value any) Result {
	f, ok := toFloat(value)
	r := Result{
		Type:       "float",
		TypeDesc:   name,
		Constraint: c,
		Raw:        value,
		Cast:       v.ForceCast,
	}
	r.Success = ok && c.contains(f)
	if ok && v.ForceCast {
		r.Value = f
	} else {
		r.Value = value
	}
	return v.store(r)
}

// CheckString validates a string against a regular expression pattern. The
// pattern is implicitly anchored to match the whole string.
func (v *Validator) CheckString(name string, pattern string, value any) Result {
	s := toString(value)
	r := Result{
		Type:       "string",
		TypeDesc:   name,
		Constraint: pattern,
		Raw:        value,
		Cast:       v.ForceCast,
	}
	anchored := `\A(?:` + pattern + `)\z`
	if v.IgnoreCase {
		anchored = `(?i)` + anchored
	}
	re, err := regexp.Compile(anchored)
	r.Success = err == nil && re.MatchString(s)
	if v.ForceCast {
		r.Value = s
	} else {
		r.Value = value
	}
	return v.store(r)
}

// CheckBool validates a boolean. If want is non-nil the cast value must also
// equal *want.
func (v *Validator) CheckBool(name string, want *bool, value any) Result {
	b, ok := castPolar(BoolPolar, value, v.IgnoreCase)
	r := Result{
		Type:       "bool",
		TypeDesc:   name,
		Constraint: want,
		Raw:        value,
		Cast:       v.ForceCast,
	}
	r.Success = ok && (want == nil || b == *want)
	if ok && v.ForceCast {
		r.Value = b
	} else {
		r.Value = value
	}
	return v.store(r)
}

// CheckEnum validates membership in an enum by key or by value; a successful
// cast always yields the canonical value.
func (v *Validator) CheckEnum(name string, c Enum, value any) Result {
	s := toString(value)
	r := Result{
		Type:       "enum",
		TypeDesc:   name,
		Constraint: c,
		Raw:        value,
		Cast:       v.ForceCast,
	}
	canon, ok := lookupEnum(c, s, v.IgnoreCase)
	r.Success = ok
	if ok && v.ForceCast {
		r.Value = canon
	} else {
		r.Value = value
	}
	return v.store(r)
}

// CheckPolar validates membership in either side of a polar term pair;
// casting yields true for the first set and false for the second.
func (v *Validator) CheckPolar(name string, c Polar, value any) Result {
	b, ok := castPolar(c, value, v.IgnoreCase)
	r := Result{
		Type:       "polar",
		TypeDesc:   name,
		Constraint: c,
		Raw:        value,
		Cast:       v.ForceCast,
	}
	r.Success = ok
	if ok && v.ForceCast {
		r.Value = b
	} else {
		r.Value = value
	}
	return v.store(r)
}

// Err returns a *ValidationError carrying the failed Results, or nil if every
// check so far has succeeded.
func (v *Validator) Err() error {
	if len(v.Failed) == 0 {
		return nil
	}
	return &ValidationError{Message: v.String(true), Failures: append([]Result(nil), v.Failed...)}
}

// String renders the validation attempts line by line.
func (v *Validator) String(errorsOnly bool) string {
	results := v.Results
	if errorsOnly {
		results = v.Failed
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// HTML renders the validation attempts as a sequence of paragraphs for
// display in a front-end modal.
func (v *Validator) HTML(errorsOnly bool) string {
	results := v.Results
	if errorsOnly {
		results = v.Failed
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = `<div class="dv-list">` + r.HTML() + `</div>`
	}
	return strings.Join(blocks, "\n")
}

func lookupEnum(c Enum, s string, ignoreCase bool) (string, bool) {
	if ignoreCase {
		s = strings.ToLower(s)
		for k, val := range c {
			if strings.ToLower(k) == s {
				return val, true
			}
		}
		for _, val := range c {
			if strings.ToLower(val) == s {
				return val, true
			}
		}
		return "", false
	}
	if val, ok := c[s]; ok {
		return val, true
	}
	for _, val := range c {
		if val == s {
			return val, true
		}
	}
	return "", false
}

func castPolar(c Polar, value any, ignoreCase bool) (bool, bool) {
	if b, ok := value.(bool); ok {
		return b, true
	}
	if polarContains(c.Truthy, value, ignoreCase) {
		return true, true
	}
	if polarContains(c.Falsy, value, ignoreCase) {
		return false, true
	}
	return false, false
}

func polarContains(terms []any, value any, ignoreCase bool) bool {
	for _, t := range terms {
		if polarEqual(t, value, ignoreCase) {
			return true
		}
	}
	return false
}

func polarEqual(a, b any, ignoreCase bool) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		if ignoreCase {
			return strings.EqualFold(as, bs)
		}
		return as == bs
	}
	if aok != bok {
		return false
	}
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return a == b
}

func toString(value any) string {
	switch x := value.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch x := value.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case bool:
		return 0, false
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(value any) (int, bool) {
	switch x := value.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case bool:
		return 0, false
	case float64:
		if x != math.Trunc(x) || math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
