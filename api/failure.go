package api

import "fmt"

// TransportFailure is the single failure shape produced at the HTTP
// boundary. Raw transport errors and response bodies are folded into it
// here and never passed further up.
type TransportFailure struct {
	// Status is the HTTP status code, or 0 when the request never
	// produced a response (DNS failure, blocked request, timeout).
	Status int

	// Code and Message come from the backend's structured error body
	// {code, message}, when one was present and parseable.
	Code    string
	Message string

	// Err is the underlying transport error, set only when the request
	// never reached the server.
	Err error
}

func (f *TransportFailure) Error() string {
	if f.Status != 0 {
		if f.Message != "" {
			return fmt.Sprintf("api: status %d: %s", f.Status, f.Message)
		}
		return fmt.Sprintf("api: status %d", f.Status)
	}
	if f.Err != nil {
		return fmt.Sprintf("api: transport: %v", f.Err)
	}
	return "api: unknown failure"
}

func (f *TransportFailure) Unwrap() error {
	return f.Err
}

// Reached reports whether the request produced an HTTP response at all.
func (f *TransportFailure) Reached() bool {
	return f.Status != 0
}
