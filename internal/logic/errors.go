package logic

import "errors"

// BadRequestError marks a client-side validation failure. Handlers map it to
// an HTTP 400 before any streaming begins.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return e.Msg }

func badRequest(msg string) error {
	return &BadRequestError{Msg: msg}
}

// ErrGeneratorUnavailable is returned when no LLM backend is configured.
var ErrGeneratorUnavailable = errors.New("answer generation is not configured")
