package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure so the HTTP boundary can pick a
// status code without inspecting error text.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindExtraction
	KindUpstreamStorage
	KindUpstreamIndex
	KindUpstreamQuery
)

// DomainError is raised at the point of detection and propagated unmodified
// to the boundary translator. No step retries or swallows one.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewExtractionError(message string, err error) *DomainError {
	return &DomainError{Kind: KindExtraction, Message: message, Err: err}
}

func NewUpstreamStorageError(message string, err error) *DomainError {
	return &DomainError{Kind: KindUpstreamStorage, Message: message, Err: err}
}

func NewUpstreamIndexError(message string, err error) *DomainError {
	return &DomainError{Kind: KindUpstreamIndex, Message: message, Err: err}
}

func NewUpstreamQueryError(message string, err error) *DomainError {
	return &DomainError{Kind: KindUpstreamQuery, Message: message, Err: err}
}

func NewInternalError(message string, err error) *DomainError {
	return &DomainError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to KindInternal for anything
// that is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
