package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[1;32m"
	colorBlue  = "\033[1;34m"
	colorRed   = "\033[1;31m"
	clearLine  = "\r\033[K"
)

// Terminal renders core events the way makepkg prints them: "==>" for
// stages and "->" for the steps within them, on stderr so stdout carries
// only what commands print. Command output is inherited.
type Terminal struct {
	out         io.Writer
	color       bool
	interactive bool

	mu       sync.Mutex
	progress bool
}

var _ observer.Observer = (*Terminal)(nil)

// NewTerminal writes to out. Colors and live progress lines are used only
// when out is a terminal.
func NewTerminal(out *os.File, noColor bool) *Terminal {
	tty := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	return newTerminal(out, tty && !noColor, tty)
}

func newTerminal(out io.Writer, color, interactive bool) *Terminal {
	return &Terminal{out: out, color: color, interactive: interactive}
}

func isStage(kind observer.EventKind) bool {
	switch kind {
	case observer.RetrievingSources, observer.ExtractingSources, observer.SourcesAreReady,
		observer.GeneratingChecksums, observer.RunningFunction, observer.StartingFakeroot,
		observer.BuildingPackage:
		return true
	}
	return false
}

func (t *Terminal) Event(e observer.Event) error {
	if isStage(e.Kind) {
		return t.line(colorGreen, "==>", e.String())
	}
	return t.line(colorBlue, "  ->", e.String())
}

func (t *Terminal) Download(e observer.DownloadEvent) error {
	name := e.Session.Source.FileName()
	switch e.Kind {
	case observer.Progress:
		if !t.interactive {
			return nil
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		t.progress = true
		_, err := fmt.Fprintf(t.out, "%s  %s %s", clearLine, name, progressText(e.Done, e.Size))
		return err
	case observer.Completed:
		return t.line(colorBlue, "  ->", fmt.Sprintf("%s done", name))
	case observer.Failed:
		return t.line(colorRed, "  ->", fmt.Sprintf("%s failed (status %d)", name, e.Status))
	default:
		return nil
	}
}

func progressText(done, size int64) string {
	if size <= 0 {
		return humanize.Bytes(uint64(done))
	}
	return fmt.Sprintf("%s / %s (%d%%)", humanize.Bytes(uint64(done)), humanize.Bytes(uint64(size)), done*100/size)
}

func (t *Terminal) Log(level observer.Level, msg string) error {
	switch level {
	case observer.LevelDebug:
		logger.Debug(msg)
	case observer.LevelWarning:
		logger.Warn(msg)
	default:
		logger.Error(msg)
	}
	return nil
}

func (t *Terminal) CommandStarted(uint64, observer.CommandKind) (observer.OutputPolicy, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return observer.OutputPolicy{}, t.endProgress()
}

func (t *Terminal) CommandOutput(_ uint64, _ observer.CommandKind, _ observer.Stream, chunk []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.out.Write(chunk)
	return err
}

func (t *Terminal) CommandExited(uint64, observer.CommandKind) error {
	return nil
}

func (t *Terminal) line(color, prefix, msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.endProgress(); err != nil {
		return err
	}
	var err error
	if t.color {
		_, err = fmt.Fprintf(t.out, "%s%s%s %s%s%s\n", color, prefix, colorReset, colorBold, msg, colorReset)
	} else {
		_, err = fmt.Fprintf(t.out, "%s %s\n", prefix, msg)
	}
	return err
}

// endProgress clears a live progress line. Callers hold t.mu.
func (t *Terminal) endProgress() error {
	if !t.progress {
		return nil
	}
	t.progress = false
	_, err := io.WriteString(t.out, clearLine)
	return err
}
