package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"takeoff-service/internal/extraction"
	"takeoff-service/internal/parser"
)

// Kind classifies a failed load.
type Kind int

const (
	KindFailed Kind = iota
	KindUnsupported
	KindSizeLimit
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindSizeLimit:
		return "size_limit"
	default:
		return "failed"
	}
}

// LoadError is returned by every strategy for a load that did not produce a
// result. Suggest names an alternate strategy for size-limit failures.
type LoadError struct {
	Kind    Kind
	Suggest string
	Err     error
}

func (e *LoadError) Error() string {
	msg := "load " + e.Kind.String()
	if e.Suggest != "" {
		msg += fmt.Sprintf(" (try %s)", e.Suggest)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a load error, KindFailed for any other error.
func KindOf(err error) Kind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindFailed
}

func sizeLimit(size, limit int64, suggest string) error {
	return &LoadError{
		Kind:    KindSizeLimit,
		Suggest: suggest,
		Err:     fmt.Errorf("file is %d bytes, limit is %d", size, limit),
	}
}

// classify converts collaborator errors into a LoadError.
func classify(err error, suggest string) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	switch {
	case errors.Is(err, parser.ErrUnsupported):
		return &LoadError{Kind: KindUnsupported, Err: err}
	case errors.Is(err, extraction.ErrTooLarge):
		return &LoadError{Kind: KindSizeLimit, Suggest: suggest, Err: err}
	default:
		return &LoadError{Kind: KindFailed, Err: err}
	}
}
