package browser

import "fmt"

// ElementNotFoundError reports a step whose target element never appeared
// within the configured wait.
type ElementNotFoundError struct {
	Op       string
	Selector string
	Err      error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s: element %q not found: %v", e.Op, e.Selector, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// TimeoutError reports a step that did not complete within the configured
// wait.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
