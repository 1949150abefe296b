package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoCorpus          = errors.New("no corpus available")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// DecodeError reports bytes that cannot be parsed under their claimed format.
type DecodeError struct {
	Filename string
	Format   string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.Filename, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a file extension outside the supported set.
type UnsupportedFormatError struct {
	Filename string
	Ext      string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported file format %q", e.Filename, e.Ext)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// EmbeddingError reports a failed or malformed embedding call. Ordinal is the
// chunk being embedded, or -1 for a query.
type EmbeddingError struct {
	Ordinal int
	Err     error
}

func (e *EmbeddingError) Error() string {
	if e.Ordinal < 0 {
		return fmt.Sprintf("embed query: %v", e.Err)
	}
	return fmt.Sprintf("embed chunk %d: %v", e.Ordinal, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// ConfigurationError reports invalid settings or an embedder that does not
// match the one an index was built with.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// PreconditionError reports a call made in a state that cannot serve it.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string { return "precondition: " + e.Err.Error() }

func (e *PreconditionError) Unwrap() error { return e.Err }
