package router

import "errors"

// ValidationError reports a failed handler precondition. It is the only
// failure category whose message is exposed to the caller; everything else
// is answered with a generic body.
type ValidationError struct {
	Message string
}

// Error returns the caller-visible message.
func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid constructs a ValidationError.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// Check returns a ValidationError when the condition does not hold.
func Check(condition bool, message string) error {
	if condition {
		return nil
	}
	return &ValidationError{Message: message}
}

// AsValidation extracts a ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}
