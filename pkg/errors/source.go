package errors

import (
	"fmt"
	"strings"
)

// SourceError is a failure to retrieve or prepare one declared source. Its
// message always carries enough of the source to act on without re-running.
type SourceError struct {
	Kind    error
	Source  string // display form
	Name    string // file name
	URL     string
	Status  int    // transfer status for ErrDownloadStatus
	Backend string // vcs backend for ErrUnsupportedFragment
	Detail  string // fragment kind, or requested ref for ErrRefsDiffer
	Actual  string // resolved ref for ErrRefsDiffer
	Err     error
}

func (e *SourceError) Error() string {
	var msg string
	switch e.Kind {
	case ErrSourceMissing:
		msg = fmt.Sprintf("can't find source %s", e.Source)
	case ErrUnknownProtocol:
		msg = fmt.Sprintf("unknown protocol %s", e.Source)
	case ErrUnknownVCSClient:
		msg = fmt.Sprintf("unknown VCS client %s", e.Source)
	case ErrDownloadStatus:
		msg = fmt.Sprintf("%s (status %d)", e.Name, e.Status)
	case ErrRemotesDiffer:
		msg = fmt.Sprintf("%s is not a clone of %s", e.Name, e.URL)
	case ErrUnsupportedFragment:
		msg = fmt.Sprintf("%s: %s does not support fragment %s", e.Source, e.Backend, e.Detail)
	case ErrRefsDiffer:
		msg = fmt.Sprintf("%s: failed to checkout version %s, the git tag has been forged (got %s)",
			e.Name, e.Detail, e.Actual)
	case ErrNotCheckedOut:
		msg = fmt.Sprintf("%s is not checked out", e.Name)
	case ErrChecksumsUnsupported:
		msg = fmt.Sprintf("%s: %s for %s", e.Source, e.Kind, e.Backend)
	default:
		msg = fmt.Sprintf("%s (%v)", e.Name, e.Err)
	}
	return "failed to retrieve sources: " + msg
}

func (e *SourceError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ComponentNotFoundError reports a required file that is absent from every
// directory searched.
type ComponentNotFoundError struct {
	Component string
	Searched  []string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (searched %s)", ErrComponentNotFound, e.Component, strings.Join(e.Searched, ", "))
}

func (e *ComponentNotFoundError) Unwrap() error {
	return ErrComponentNotFound
}
