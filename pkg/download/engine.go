package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// transfer is one bulk session. Its goroutine writes done and size; the
// control loop only reads them.
type transfer struct {
	session   observer.Session
	final     string
	part      string
	transport Transport

	done atomic.Int64
	size atomic.Int64

	// reported is the done value of the last Progress event.
	reported int64
}

type outcome struct {
	t      *transfer
	status int
	err    error
}

// transferAll runs the bulk class. Transfers execute in their own
// goroutines; this loop is the only place DownloadEvents are emitted, which
// keeps every session's events in order. After the first failure no new
// transfer is started, in-flight ones are allowed to finish, and that first
// failure is returned.
func (c *Coordinator) transferAll(ctx context.Context, dirs *config.PkgbuildDirs, sources []source.Source, limit int) error {
	pending := make([]*transfer, len(sources))
	for i, src := range sources {
		final := dirs.DownloadPath(src)
		pending[i] = &transfer{
			session:   observer.Session{Index: i, Total: len(sources), Source: src},
			final:     final,
			part:      final + fsutil.PartSuffix,
			transport: c.Transports[src.Protocol()],
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var firstErr, obsErr error
	emit := func(e observer.DownloadEvent) {
		if obsErr != nil {
			return
		}
		if err := c.obs.Download(e); err != nil {
			obsErr = fmt.Errorf("%w: %w", pkgerrors.ErrIO, err)
			cancel()
		}
	}
	progress := func(t *transfer) {
		t.reported = t.done.Load()
		emit(observer.DownloadEvent{
			Kind:    observer.Progress,
			Session: t.session,
			Done:    t.reported,
			Size:    t.size.Load(),
		})
	}

	emit(observer.DownloadEvent{Kind: observer.BatchStart, Total: len(sources)})

	results := make(chan outcome)
	ticker := newTicker(c.Tick)
	defer ticker.Stop()

	active := make(map[int]*transfer)
	for len(pending) > 0 || len(active) > 0 {
		for len(active) < limit && len(pending) > 0 && firstErr == nil && obsErr == nil {
			t := pending[0]
			pending = pending[1:]
			if err := c.event(observer.Event{Kind: observer.Downloading, Name: t.session.Source.FileName()}); err != nil {
				obsErr = err
				cancel()
				break
			}
			emit(observer.DownloadEvent{Kind: observer.Init, Session: t.session})
			active[t.session.Index] = t
			go func() {
				status, err := t.run(ctx)
				results <- outcome{t: t, status: status, err: err}
			}()
		}
		if len(active) == 0 {
			break
		}

		select {
		case res := <-results:
			delete(active, res.t.session.Index)
			if res.err == nil {
				progress(res.t)
				emit(observer.DownloadEvent{Kind: observer.Completed, Session: res.t.session})
				continue
			}
			emit(observer.DownloadEvent{Kind: observer.Failed, Session: res.t.session, Status: res.status})
			if firstErr == nil {
				firstErr = res.err
			}
		case <-ticker.C:
			for _, t := range sorted(active) {
				if t.done.Load() != t.reported {
					progress(t)
				}
			}
		}
	}

	emit(observer.DownloadEvent{Kind: observer.BatchEnd, Total: len(sources)})

	if firstErr != nil {
		return firstErr
	}
	return obsErr
}

func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		d = time.Second
	}
	return time.NewTicker(d)
}

func sorted(active map[int]*transfer) []*transfer {
	out := make([]*transfer, 0, len(active))
	for _, t := range active {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].session.Index < out[j].session.Index })
	return out
}

// run performs the transfer into the .part file and renames it into place
// on a 2xx status. Whatever was written to the .part file is kept on
// failure so a later attempt resumes from it.
func (t *transfer) run(ctx context.Context) (int, error) {
	src := t.session.Source
	// fail reports an unsuccessful status, or an i/o error with status 0.
	fail := func(status int, err error) (int, error) {
		se := src.Error(pkgerrors.ErrDownloadStatus)
		se.Status = status
		if err != nil {
			se.Kind = pkgerrors.ErrIO
			se.Status = 0
			se.Err = err
		}
		return se.Status, se
	}

	f, err := fsutil.OpenAppend(t.part)
	if err != nil {
		return fail(0, err)
	}
	defer func() { _ = f.Close() }()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fail(0, err)
	}

	resp, err := t.transport.Open(ctx, src.URL, offset)
	if err != nil {
		return fail(0, err)
	}
	if !resp.OK() {
		return fail(resp.Status, nil)
	}
	defer func() { _ = resp.Body.Close() }()

	if !resp.Resumed && offset > 0 {
		logger.Debug("Server ignored resume offset, restarting", logger.Fields{
			"source": src.FileName(),
			"offset": offset,
		})
		if err := f.Truncate(0); err != nil {
			return fail(0, err)
		}
		offset = 0
	}
	t.done.Store(offset)
	t.size.Store(resp.Size)

	if _, err := io.Copy(f, &countingReader{r: resp.Body, n: &t.done}); err != nil {
		return fail(0, err)
	}
	if err := resp.Body.Close(); err != nil {
		return fail(0, err)
	}
	if err := f.Close(); err != nil {
		return fail(0, err)
	}
	if err := os.Rename(t.part, t.final); err != nil {
		return fail(0, err)
	}
	return resp.Status, nil
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
