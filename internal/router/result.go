package router

import "net/http"

// Result is what a handler produces on success. The dispatcher maps it onto
// the HTTP response.
type Result interface {
	isResult()
}

// NoContentResult answers 204 with an empty body.
type NoContentResult struct{}

func (NoContentResult) isResult() {}

// JSONResult answers with a JSON payload.
type JSONResult struct {
	// Status defaults to 200 when zero.
	Status  int
	Payload any
}

func (JSONResult) isResult() {}

// StatusCode returns the effective status of the result.
func (res JSONResult) StatusCode() int {
	if res.Status == 0 {
		return http.StatusOK
	}
	return res.Status
}

// ViewResult renders a page route's view.
type ViewResult struct {
	Directory string
}

func (ViewResult) isResult() {}

// RedirectResult answers with a 302-class redirect.
type RedirectResult struct {
	Location string
}

func (RedirectResult) isResult() {}

// ErrorResult is a pre-built failure response with its own status and
// caller-visible message.
type ErrorResult struct {
	Status  int
	Message string
}

func (ErrorResult) isResult() {}
