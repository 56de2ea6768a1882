package router

import (
	"encoding/json"
	"io"
)

// Error is an error that knows how to present itself as an HTTP response.
// Handlers and middleware return these to have the router write the status
// code and body; plain errors go through the mapper chain first.
type Error interface {
	error
	StatusCode() int
	Encode(w io.Writer) error
}

// JsonError is the wire form of a failed request: {"code": ..., "error": ...}.
// The Err string is what the client sees, so keep it free of internals.
type JsonError struct {
	Code int    `json:"code"`
	Err  string `json:"error"`
}

func NewJsonError(code int, err string) JsonError {
	return JsonError{
		Code: code,
		Err:  err,
	}
}

func (e JsonError) StatusCode() int {
	return e.Code
}

func (e JsonError) Error() string {
	return e.Err
}

func (e JsonError) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(e)
}
