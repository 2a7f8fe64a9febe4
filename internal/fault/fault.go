// Package fault defines the typed failure outcomes returned by pipeline
// stages and the single translator that turns them into user messages.
package fault

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

// Kind classifies a failure by the stage that produced it.
type Kind string

const (
	KindValidation Kind = "validation"
	KindFetch      Kind = "fetch"
	KindExtraction Kind = "extraction"
	KindSynthesis  Kind = "synthesis"
	KindRender     Kind = "render"
)

// Error is a failure tagged with its Kind. Op names the failing step.
type Error struct {
	Kind Kind
	Op   string
	Err  error
	// Unsupported marks an extraction failure caused by the file type
	// rather than its contents.
	Unsupported bool
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	if err == nil {
		err = eris.New(string(kind) + " failed")
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid wraps a validation failure for user input.
func Invalid(op string, err error) *Error { return newError(KindValidation, op, err) }

// Fetch wraps a content fetch failure.
func Fetch(op string, err error) *Error { return newError(KindFetch, op, err) }

// Extraction wraps a document parse failure.
func Extraction(op string, err error) *Error { return newError(KindExtraction, op, err) }

// Unsupported reports an uploaded file whose type cannot be extracted.
func Unsupported(op, contentType string) *Error {
	e := newError(KindExtraction, op, eris.Errorf("unsupported content type %q", contentType))
	e.Unsupported = true
	return e
}

// Synthesis wraps a prompt fill or completion failure.
func Synthesis(op string, err error) *Error { return newError(KindSynthesis, op, err) }

// Render wraps a document generation failure.
func Render(op string, err error) *Error { return newError(KindRender, op, err) }

// KindOf returns the Kind of the first fault.Error in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries a fault of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message translates an error into the short text shown to the requester.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if !errors.As(err, &fe) {
		return "An unexpected error occurred."
	}
	switch fe.Kind {
	case KindValidation:
		return cause(fe)
	case KindExtraction:
		if fe.Unsupported {
			return "Unsupported file type. Please upload a PDF or DOCX file."
		}
		return "Error extracting text from file."
	case KindSynthesis:
		return "Error generating insights: " + cause(fe)
	case KindRender:
		return "Error generating PDF: " + cause(fe)
	case KindFetch:
		return "Error scraping website: " + cause(fe)
	default:
		return "An unexpected error occurred."
	}
}

// HTTPStatus maps an error to the status code returned by the server.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindExtraction:
		return http.StatusBadRequest
	case KindSynthesis, KindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// cause returns the innermost message of the wrapped error without eris
// stack or wrap prefixes.
func cause(fe *Error) string {
	if fe.Err == nil {
		return fe.Op
	}
	if c := eris.Cause(fe.Err); c != nil {
		return c.Error()
	}
	return fe.Err.Error()
}
