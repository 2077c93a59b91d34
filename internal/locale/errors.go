package locale

import "fmt"

// ResourceError reports a missing or malformed task resource, such as a
// localisation bundle that cannot be found or fails its meta checks.
type ResourceError struct {
	Task     string
	Resource string
	// ResponseID is set when the resource was resolved through an in-flight
	// response, empty otherwise.
	ResponseID string
	Err        error
}

func (e *ResourceError) Error() string {
	if e.ResponseID != "" {
		return fmt.Sprintf("%s: resource %q (response %s): %v", e.Task, e.Resource, e.ResponseID, e.Err)
	}
	return fmt.Sprintf("%s: resource %q: %v", e.Task, e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
