package form

import "time"

// State enumerates the form lifecycle. Invalid and SubmitFailed are
// transient: the engine lands back on Ready after surfacing them.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateValidating    State = "validating"
	StateInvalid       State = "invalid"
	StateSubmitting    State = "submitting"
	StateSubmitted     State = "submitted"
	StateSubmitFailed  State = "submit_failed"
)

// ValidationError is a field failure produced during a submit attempt.
type ValidationError struct {
	FieldID                  string
	RelatesToSettingsSection bool
	Message                  string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors aggregates every field failure from one attempt so the
// caller can surface all hints at once.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "form: validation failed"
	}
	return "form: " + e.Errors[0].Message
}

// Completion is the exit signal handed to the embedding page once the issue
// exists.
type Completion struct {
	IssueNumber int
	IssueURL    string
	CreatedAt   time.Time
}

// StateListener observes lifecycle transitions.
type StateListener func(State)

// CompletionListener observes the terminal success event.
type CompletionListener func(Completion)
