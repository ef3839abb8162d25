package observer

import (
	"fmt"

	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// EventKind enumerates lifecycle events.
type EventKind int

const (
	RetrievingSources EventKind = iota
	FoundSource
	Downloading
	DownloadingVCS
	UpdatingVCS
	ExtractingSources
	ExtractingVCS
	NoExtract
	Extracting
	SourcesAreReady
	GeneratingChecksums
	RunningFunction
	StartingFakeroot
	BuildingPackage
)

// Event is a lifecycle notification. Name is the file, function or package
// name the event refers to; VCS and Version are set where relevant.
type Event struct {
	Kind    EventKind
	Name    string
	Version string
	VCS     source.VCSKind
}

func (e Event) String() string {
	switch e.Kind {
	case RetrievingSources:
		return "Retrieving sources..."
	case FoundSource:
		return fmt.Sprintf("found %s", e.Name)
	case Downloading:
		return fmt.Sprintf("downloading %s...", e.Name)
	case DownloadingVCS:
		return fmt.Sprintf("cloning %s repo %s ...", e.VCS, e.Name)
	case UpdatingVCS:
		return fmt.Sprintf("updating %s repo %s ...", e.VCS, e.Name)
	case ExtractingSources:
		return "Extracting sources..."
	case ExtractingVCS:
		return fmt.Sprintf("creating working copy of %s %s repo...", e.Name, e.VCS)
	case NoExtract:
		return fmt.Sprintf("skipping %s (no extract)", e.Name)
	case Extracting:
		return fmt.Sprintf("extracting %s ...", e.Name)
	case SourcesAreReady:
		return "Sources are ready"
	case GeneratingChecksums:
		return "Generating checksums for source files"
	case RunningFunction:
		return fmt.Sprintf("Starting %s()...", e.Name)
	case StartingFakeroot:
		return "Starting fakeroot daemon..."
	case BuildingPackage:
		return fmt.Sprintf("Package %s-%s", e.Name, e.Version)
	default:
		return fmt.Sprintf("EventKind(%d)", int(e.Kind))
	}
}

// Session identifies one transfer within a download batch. Index is assigned
// once and never changes.
type Session struct {
	Index  int
	Total  int
	Source source.Source
}

// DownloadKind enumerates download batch events.
type DownloadKind int

const (
	BatchStart DownloadKind = iota
	Init
	Progress
	Completed
	Failed
	BatchEnd
)

func (k DownloadKind) String() string {
	switch k {
	case BatchStart:
		return "batch-start"
	case Init:
		return "init"
	case Progress:
		return "progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case BatchEnd:
		return "batch-end"
	default:
		return fmt.Sprintf("DownloadKind(%d)", int(k))
	}
}

// DownloadEvent is one entry of a batch's event stream. Total is set on
// BatchStart, Done and Size on Progress and Status on Failed. Size is zero
// when the remote did not announce a length.
type DownloadEvent struct {
	Kind    DownloadKind
	Total   int
	Session Session
	Done    int64
	Size    int64
	Status  int
}

// ValidateSequence checks that events form exactly one well ordered batch:
// a single BatchStart, then for every session an Init before any Progress,
// exactly one terminal Completed or Failed and nothing after it, then a single
// BatchEnd.
func ValidateSequence(events []DownloadEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("empty event sequence")
	}
	if events[0].Kind != BatchStart {
		return fmt.Errorf("first event is %s, want %s", events[0].Kind, BatchStart)
	}
	last := events[len(events)-1]
	if last.Kind != BatchEnd {
		return fmt.Errorf("last event is %s, want %s", last.Kind, BatchEnd)
	}

	const (
		unseen = iota
		active
		done
	)
	state := make(map[int]int)
	for i, ev := range events[1 : len(events)-1] {
		pos := i + 1
		idx := ev.Session.Index
		switch ev.Kind {
		case BatchStart, BatchEnd:
			return fmt.Errorf("event %d: unexpected %s inside batch", pos, ev.Kind)
		case Init:
			if state[idx] != unseen {
				return fmt.Errorf("event %d: session %d initialised twice", pos, idx)
			}
			state[idx] = active
		case Progress:
			if state[idx] != active {
				return fmt.Errorf("event %d: progress for inactive session %d", pos, idx)
			}
		case Completed, Failed:
			if state[idx] != active {
				return fmt.Errorf("event %d: %s for inactive session %d", pos, ev.Kind, idx)
			}
			state[idx] = done
		}
	}
	for idx, st := range state {
		if st != done {
			return fmt.Errorf("session %d never finished", idx)
		}
	}
	return nil
}
