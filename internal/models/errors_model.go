package models

import "fmt"

// ErrorKind classifies a publish run failure. Kinds decide whether the
// failure aborts the run and how it is surfaced; the wrapped error text is
// passed through verbatim for operator visibility.
type ErrorKind string

const (
	ErrKindConfig             ErrorKind = "config"
	ErrKindCredential         ErrorKind = "credential"
	ErrKindContentUnavailable ErrorKind = "content_unavailable"
	ErrKindNoCandidate        ErrorKind = "no_candidate"
	ErrKindTransient          ErrorKind = "transient"
	ErrKindUpstream           ErrorKind = "upstream"
	ErrKindAnnotation         ErrorKind = "annotation"
)

type RunError struct {
	Kind ErrorKind
	Err  error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func NewRunError(kind ErrorKind, format string, args ...interface{}) *RunError {
	return &RunError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the taxonomy kind of err, or ErrKindUpstream when the
// error does not carry one.
func KindOf(err error) ErrorKind {
	if re, ok := err.(*RunError); ok {
		return re.Kind
	}
	return ErrKindUpstream
}
