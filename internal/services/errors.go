package services

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure so the HTTP layer can choose a status.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnsupportedType
	KindExtraction
	KindEmptyExtraction
	KindInvalidModelResponse
	KindAnalysisFailed
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnsupportedType:
		return "unsupported_type"
	case KindExtraction:
		return "extraction_error"
	case KindEmptyExtraction:
		return "empty_extraction"
	case KindInvalidModelResponse:
		return "invalid_model_response"
	case KindAnalysisFailed:
		return "analysis_failed"
	case KindTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}

// Error carries a client-safe Message; Err keeps the cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
