//go:generate mockgen -destination=./mocks/observer.go -package=mocks . Observer

// Package observer defines the handle through which the build core reports
// lifecycle events, download progress, command output and log messages.
//
// An Observer is passed explicitly to every component that emits. Delivery is
// fire-and-forget from the core's point of view, but a returned error aborts
// the operation that triggered it and surfaces as an I/O failure.
package observer

import (
	"fmt"
	"os"

	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// Observer receives everything the core reports.
type Observer interface {
	Event(e Event) error
	Download(e DownloadEvent) error
	Log(level Level, msg string) error

	// CommandStarted registers a correlation id before the command produces
	// output and returns the capture policy for its streams.
	CommandStarted(id uint64, kind CommandKind) (OutputPolicy, error)
	// CommandOutput delivers a chunk for streams under the Callback policy.
	CommandOutput(id uint64, kind CommandKind, stream Stream, chunk []byte) error
	CommandExited(id uint64, kind CommandKind) error
}

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarning:
		return "warning"
	default:
		return "error"
	}
}

// Stream names a child output stream.
type Stream string

const (
	Stdin  Stream = "stdin"
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// CaptureMode is the disposition of one output stream.
type CaptureMode int

const (
	// Inherit mirrors the stream to the controlling terminal.
	Inherit CaptureMode = iota
	// Null discards the stream.
	Null
	// Callback delivers chunks through Observer.CommandOutput.
	Callback
	// File appends the stream to Capture.File.
	File
)

func (m CaptureMode) String() string {
	switch m {
	case Inherit:
		return "inherit"
	case Null:
		return "null"
	case Callback:
		return "callback"
	case File:
		return "file"
	default:
		return fmt.Sprintf("CaptureMode(%d)", int(m))
	}
}

// Capture is the policy for a single stream. File is only used by the File
// mode.
type Capture struct {
	Mode CaptureMode
	File *os.File
}

// OutputPolicy holds the per-stream policies for one command. The zero value
// inherits both streams.
type OutputPolicy struct {
	Stdout Capture
	Stderr Capture
}

// Policy returns an OutputPolicy applying mode to both streams.
func Policy(mode CaptureMode) OutputPolicy {
	return OutputPolicy{Stdout: Capture{Mode: mode}, Stderr: Capture{Mode: mode}}
}

// Op is the logical purpose of a command.
type Op int

const (
	OpRunFunction Op = iota
	OpBuildPackage
	OpDownloadSource
	OpExtractSource
	OpChecksumSource
	OpFakeroot
)

// CommandKind ties a running command back to the recipe and, where relevant,
// the source it works on. It is informational only.
type CommandKind struct {
	Op       Op
	Pkgbase  string
	Function string
	Source   *source.Source
}

func (k CommandKind) String() string {
	switch k.Op {
	case OpRunFunction:
		return fmt.Sprintf("%s: %s()", k.Pkgbase, k.Function)
	case OpBuildPackage:
		return fmt.Sprintf("%s: build", k.Pkgbase)
	case OpDownloadSource:
		return fmt.Sprintf("%s: download %s", k.Pkgbase, k.sourceName())
	case OpExtractSource:
		return fmt.Sprintf("%s: extract %s", k.Pkgbase, k.sourceName())
	case OpChecksumSource:
		return fmt.Sprintf("%s: checksum %s", k.Pkgbase, k.sourceName())
	default:
		return fmt.Sprintf("%s: fakeroot", k.Pkgbase)
	}
}

func (k CommandKind) sourceName() string {
	if k.Source == nil {
		return ""
	}
	return k.Source.FileName()
}

// Nop ignores everything and inherits command output.
type Nop struct{}

var _ Observer = Nop{}

func (Nop) Event(Event) error                       { return nil }
func (Nop) Download(DownloadEvent) error            { return nil }
func (Nop) Log(Level, string) error                 { return nil }
func (Nop) CommandExited(uint64, CommandKind) error { return nil }

func (Nop) CommandStarted(uint64, CommandKind) (OutputPolicy, error) {
	return OutputPolicy{}, nil
}

func (Nop) CommandOutput(uint64, CommandKind, Stream, []byte) error { return nil }
