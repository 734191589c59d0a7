package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a caller mistake detected before any upstream call:
// missing input, an empty batch, an unrecognized table, a bad limit.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Invalid builds a ValidationError with a formatted message.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// SchemaError reports an uploaded table that lacks a required column.
type SchemaError struct {
	Column string
	Header []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("CSV must contain '%s' column", e.Column)
}

// UpstreamError is an actor invocation that still failed after retries.
// It is absorbed by the collection layer and only ever logged.
type UpstreamError struct {
	Actor    string
	Query    string
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("actor ")
	b.WriteString(e.Actor)
	if e.Query != "" {
		b.WriteString(" for ")
		b.WriteString(e.Query)
	}
	fmt.Fprintf(&b, " failed after %d attempt(s): %v", e.Attempts, e.Err)
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SinkError is a failed append to an external sink. Never fatal.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return e.Sink + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err should be answered with a 4xx.
func IsValidation(err error) bool {
	var ve *ValidationError
	var se *SchemaError
	return errors.As(err, &ve) || errors.As(err, &se)
}
