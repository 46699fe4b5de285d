package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnsupportedFormat   Kind = "unsupported_format"
	KindExtractionFailed    Kind = "extraction_failed"
	KindMalformedResponse   Kind = "malformed_response"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindValidationFailed    Kind = "validation_failed"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
)

// AppError is the typed failure returned across component boundaries.
// Subject names the offending input (media type or file name) and Raw keeps
// the unparsed model output for diagnostics.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
	Raw     string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, code int, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func UnsupportedFormat(mediaType string) *AppError {
	e := New(KindUnsupportedFormat, http.StatusUnsupportedMediaType,
		"Unsupported file type '"+mediaType+"'. Upload a plain text, PDF or DOCX file, or paste the text instead", nil)
	e.Subject = mediaType
	return e
}

func ExtractionFailed(fileName string, err error) *AppError {
	e := New(KindExtractionFailed, http.StatusUnprocessableEntity,
		"Could not read text from '"+fileName+"'. Paste the text manually instead", err)
	e.Subject = fileName
	return e
}

func MalformedResponse(raw string, err error) *AppError {
	e := New(KindMalformedResponse, http.StatusBadGateway,
		"The AI returned a response that could not be understood. Please try again", err)
	e.Raw = raw
	return e
}

func UpstreamUnavailable(message string, err error) *AppError {
	return New(KindUpstreamUnavailable, http.StatusServiceUnavailable, message, err)
}

func ValidationFailed(message string) *AppError {
	return New(KindValidationFailed, http.StatusBadRequest, message, nil)
}

func NotFound(message string) *AppError {
	return New(KindNotFound, http.StatusNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(KindConflict, http.StatusConflict, message, nil)
}

func Unauthorized(message string) *AppError {
	return New(KindUnauthorized, http.StatusUnauthorized, message, nil)
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// From extracts the AppError from err, if any.
func From(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
