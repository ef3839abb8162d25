package observer

import (
	"sync"
)

// LogEntry is a log message captured by a Recorder.
type LogEntry struct {
	Level Level
	Msg   string
}

// Recorder is an Observer that keeps everything it receives. It is safe for
// concurrent use. Policy is returned from every CommandStarted call.
type Recorder struct {
	Policy OutputPolicy

	mu        sync.Mutex
	events    []Event
	downloads []DownloadEvent
	logs      []LogEntry
	output    map[uint64]map[Stream][]byte
	started   []uint64
	exited    []uint64
}

var _ Observer = (*Recorder)(nil)

func (r *Recorder) Event(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Download(e DownloadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloads = append(r.downloads, e)
	return nil
}

func (r *Recorder) Log(level Level, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, LogEntry{Level: level, Msg: msg})
	return nil
}

func (r *Recorder) CommandStarted(id uint64, _ CommandKind) (OutputPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
	return r.Policy, nil
}

func (r *Recorder) CommandOutput(id uint64, _ CommandKind, stream Stream, chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.output == nil {
		r.output = make(map[uint64]map[Stream][]byte)
	}
	if r.output[id] == nil {
		r.output[id] = make(map[Stream][]byte)
	}
	r.output[id][stream] = append(r.output[id][stream], chunk...)
	return nil
}

func (r *Recorder) CommandExited(id uint64, _ CommandKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exited = append(r.exited, id)
	return nil
}

// Events returns a copy of the recorded lifecycle events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Downloads returns a copy of the recorded download events.
func (r *Recorder) Downloads() []DownloadEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DownloadEvent(nil), r.downloads...)
}

// Logs returns a copy of the recorded log messages.
func (r *Recorder) Logs() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.logs...)
}

// Output returns everything delivered for id on stream.
func (r *Recorder) Output(id uint64, stream Stream) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.output[id][stream]...)
}

// Commands returns the ids seen by CommandStarted and CommandExited, in order.
func (r *Recorder) Commands() (started, exited []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.started...), append([]uint64(nil), r.exited...)
}
