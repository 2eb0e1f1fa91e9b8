package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	// KindConfiguration covers unknown jurisdictions and missing credentials. Fatal for the query.
	KindConfiguration ErrorKind = "configuration"
	// KindClassificationParse is raised by the intent parser and recovered by the router.
	KindClassificationParse ErrorKind = "classification_parse"
	// KindGeneration covers failed or timed out LLM and embedding calls.
	KindGeneration ErrorKind = "generation"
	// KindRetrieval covers index load and search failures.
	KindRetrieval ErrorKind = "retrieval"
)

var (
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction")
	ErrMissingCredentials  = errors.New("missing credentials")
	ErrEmptyCompletion     = errors.New("empty completion")
)

// Error is a classified pipeline error.
type Error struct {
	Op           string
	Kind         ErrorKind
	Jurisdiction string
	Err          error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Jurisdiction != "" {
		msg += fmt.Sprintf(" [jurisdiction=%s]", e.Jurisdiction)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error. A nil err yields nil.
func NewError(op string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func ConfigurationError(op, jurisdiction string, err error) error {
	return &Error{Op: op, Kind: KindConfiguration, Jurisdiction: jurisdiction, Err: err}
}

func GenerationError(op string, err error) error {
	return NewError(op, KindGeneration, err)
}

func RetrievalError(op, jurisdiction string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: KindRetrieval, Jurisdiction: jurisdiction, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the outermost error kind, or "" if err is unclassified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
