package llm

import (
	"errors"
	"fmt"
)

var errNoChoices = errors.New("response contains no choices")

// HTTPError is a non-200 response from the provider.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

// DecodeError means the response body did not match the provider's envelope.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding provider response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseError means the model's final content was not a valid reply object.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model reply: %v (raw: %s)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }
