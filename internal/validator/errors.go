package validator

// ValidationError reports one or more failed checks from a Validator
// aggregate. Failures keeps the individual Results for rendering.
type ValidationError struct {
	Message  string
	Failures []Result
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTML renders the failures for display in a front-end modal.
func (e *ValidationError) HTML() string {
	blocks := ""
	for _, r := range e.Failures {
		blocks += `<div class="dv-list">` + r.HTML() + "</div>\n"
	}
	return blocks
}
