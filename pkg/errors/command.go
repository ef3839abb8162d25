package errors

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

// CommandError describes a failed external command. It unwraps to its Kind
// sentinel and to the underlying cause.
type CommandError struct {
	Kind     error    // one of ErrCannotExecute, ErrIO, ErrInvalidText, ErrCommandFailed
	Args     []string // full argument vector, program first
	Dir      string
	Stream   string // stream name for ErrIO
	ExitCode int    // -1 when terminated by a signal
	Signal   string
	Err      error
}

// Command returns the shell-quoted argument vector.
func (e *CommandError) Command() string {
	return shellquote.Join(e.Args...)
}

func (e *CommandError) Error() string {
	cmd := e.Command()
	switch e.Kind {
	case ErrCommandFailed:
		if e.Signal != "" {
			return fmt.Sprintf("%s: terminated by signal %s", cmd, e.Signal)
		}
		return fmt.Sprintf("%s: exited with status %d", cmd, e.ExitCode)
	case ErrIO:
		return fmt.Sprintf("%s: %s on %s: %v", cmd, e.Kind, e.Stream, e.Err)
	case ErrInvalidText:
		return fmt.Sprintf("%s: %s", cmd, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", cmd, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", cmd, e.Kind)
}

func (e *CommandError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
