package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/observer/mocks"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

type fixture struct {
	cfg   *config.Config
	rec   *observer.Recorder
	coord *Coordinator
	r     *recipe.Recipe
	dirs  *config.PkgbuildDirs
}

func newFixture(t *testing.T, sources ...string) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Settings.SrcDest = "cache"

	r := &recipe.Recipe{Pkgbase: "hello", Pkgver: "1.0", Pkgrel: "1", Script: recipe.DefaultScript, Dir: t.TempDir()}
	for _, s := range sources {
		r.Sources = append(r.Sources, source.MustParse(s))
	}

	rec := &observer.Recorder{Policy: observer.Policy(observer.Null)}
	coord := New(cfg, runner.New(rec))
	coord.Tick = 5 * time.Millisecond
	return &fixture{cfg: cfg, rec: rec, coord: coord, r: r, dirs: cfg.Dirs(r)}
}

func (f *fixture) acquire(t *testing.T, opts Options) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return f.coord.Acquire(ctx, f.r, f.dirs, opts)
}

func (f *fixture) eventKinds() []observer.EventKind {
	var kinds []observer.EventKind
	for _, e := range f.rec.Events() {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func downloadKinds(events []observer.DownloadEvent) []observer.DownloadKind {
	var kinds []observer.DownloadKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return b
}

func serveBytes(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		http.ServeContent(w, req, "a.tar.gz", time.Time{}, bytes.NewReader(data))
	}
}

func TestAcquireHTTP(t *testing.T) {
	data := payload(1024)
	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		agent.Store(req.UserAgent())
		serveBytes(data)(w, req)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL+"/a.tar.gz")
	require.NoError(t, f.acquire(t, Options{}))

	got, err := os.ReadFile(filepath.Join(f.dirs.SrcDest, "a.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.NoFileExists(t, filepath.Join(f.dirs.SrcDest, "a.tar.gz.part"))
	assert.Contains(t, agent.Load(), "pkgsmith/")

	events := f.rec.Downloads()
	require.NoError(t, observer.ValidateSequence(events))
	assert.Equal(t, observer.BatchStart, events[0].Kind)
	assert.Equal(t, 1, events[0].Total)
	assert.Equal(t, observer.Init, events[1].Kind)

	last := events[len(events)-3]
	assert.Equal(t, observer.Progress, last.Kind)
	assert.Equal(t, int64(1024), last.Done)
	assert.Equal(t, int64(1024), last.Size)
	assert.Equal(t, observer.Completed, events[len(events)-2].Kind)

	assert.Equal(t, []observer.EventKind{observer.RetrievingSources, observer.Downloading}, f.eventKinds())
}

func TestAcquireHTTPNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := newFixture(t, srv.URL+"/a.tar.gz")
	err := f.acquire(t, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrDownloadStatus)
	assert.Contains(t, err.Error(), "a.tar.gz")

	var se *pkgerrors.SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)

	assert.NoFileExists(t, filepath.Join(f.dirs.SrcDest, "a.tar.gz"))
	assert.FileExists(t, filepath.Join(f.dirs.SrcDest, "a.tar.gz.part"))

	events := f.rec.Downloads()
	require.NoError(t, observer.ValidateSequence(events))
	assert.Equal(t, []observer.DownloadKind{
		observer.BatchStart, observer.Init, observer.Failed, observer.BatchEnd,
	}, downloadKinds(events))
	assert.Equal(t, http.StatusNotFound, events[2].Status)
}

func TestAcquireTruncatedBody(t *testing.T) {
	data := payload(1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL+"/a.tar.gz")
	err := f.acquire(t, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrIO)
	assert.NotErrorIs(t, err, pkgerrors.ErrDownloadStatus)

	assert.NoFileExists(t, filepath.Join(f.dirs.SrcDest, "a.tar.gz"))
	part, err := os.ReadFile(filepath.Join(f.dirs.SrcDest, "a.tar.gz.part"))
	require.NoError(t, err)
	assert.Equal(t, data, part)

	events := f.rec.Downloads()
	require.NoError(t, observer.ValidateSequence(events))
	failed := events[len(events)-2]
	assert.Equal(t, observer.Failed, failed.Kind)
	assert.Zero(t, failed.Status)
}

func TestAcquireResumesPartialFile(t *testing.T) {
	data := payload(4096)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "range honoured", handler: serveBytes(data)},
		{name: "range ignored", handler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(data)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f := newFixture(t, srv.URL+"/a.tar.gz")
			require.NoError(t, os.MkdirAll(f.dirs.SrcDest, 0o755))
			part := filepath.Join(f.dirs.SrcDest, "a.tar.gz.part")
			require.NoError(t, os.WriteFile(part, data[:1000], 0o644))

			require.NoError(t, f.acquire(t, Options{}))

			got, err := os.ReadFile(filepath.Join(f.dirs.SrcDest, "a.tar.gz"))
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestAcquireBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(req.URL.Path))
	}))
	defer srv.Close()

	names := []string{"a", "b", "c", "d", "e"}
	var sources []string
	for _, n := range names {
		sources = append(sources, srv.URL+"/"+n)
	}
	f := newFixture(t, sources...)
	require.NoError(t, f.acquire(t, Options{Concurrency: 2}))

	assert.LessOrEqual(t, peak.Load(), int32(2))
	for _, n := range names {
		got, err := os.ReadFile(filepath.Join(f.dirs.SrcDest, n))
		require.NoError(t, err)
		assert.Equal(t, "/"+n, string(got))
	}

	events := f.rec.Downloads()
	require.NoError(t, observer.ValidateSequence(events))
	assert.Equal(t, len(names), events[0].Total)
}

func TestAcquireStopsAfterFirstFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/missing", http.NotFoundHandler())
	mux.Handle("/present", serveBytes([]byte("ok")))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newFixture(t, srv.URL+"/missing", srv.URL+"/present")
	err := f.acquire(t, Options{Concurrency: 1})
	assert.ErrorIs(t, err, pkgerrors.ErrDownloadStatus)
	assert.NoFileExists(t, filepath.Join(f.dirs.SrcDest, "present"))

	events := f.rec.Downloads()
	require.NoError(t, observer.ValidateSequence(events))
	inits := 0
	for _, e := range events {
		if e.Kind == observer.Init {
			inits++
		}
	}
	assert.Equal(t, 1, inits)
}

type statusTransport int

func (s statusTransport) Open(context.Context, string, int64) (*Response, error) {
	return &Response{Status: int(s)}, nil
}

func TestAcquireReportsTransportStatus(t *testing.T) {
	f := newFixture(t, "ftp://ftp.example.test/pub/a.tar.gz")
	f.coord.Transports["ftp"] = statusTransport(550)

	err := f.acquire(t, Options{})
	var se *pkgerrors.SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 550, se.Status)
	assert.ErrorIs(t, err, pkgerrors.ErrDownloadStatus)
}

func TestClassify(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture(t, "local.patch")
		require.NoError(t, os.WriteFile(filepath.Join(f.r.Dir, "local.patch"), []byte("x"), 0o644))

		require.NoError(t, f.acquire(t, Options{}))
		assert.Equal(t, []observer.EventKind{observer.RetrievingSources, observer.FoundSource}, f.eventKinds())
		assert.Empty(t, f.rec.Downloads())
	})

	t.Run("cached remote", func(t *testing.T) {
		f := newFixture(t, "https://example.test/a.tar.gz")
		require.NoError(t, os.MkdirAll(f.dirs.SrcDest, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(f.dirs.SrcDest, "a.tar.gz"), []byte("x"), 0o644))

		require.NoError(t, f.acquire(t, Options{}))
		assert.Contains(t, f.eventKinds(), observer.FoundSource)
	})

	t.Run("missing local", func(t *testing.T) {
		f := newFixture(t, "local.patch")
		err := f.acquire(t, Options{})
		assert.ErrorIs(t, err, pkgerrors.ErrSourceMissing)
		assert.Contains(t, err.Error(), "local.patch")
	})

	t.Run("unknown protocol", func(t *testing.T) {
		f := newFixture(t, "gopher://example.test/a.txt")
		err := f.acquire(t, Options{})
		assert.ErrorIs(t, err, pkgerrors.ErrUnknownProtocol)
	})

	t.Run("invalid agent table", func(t *testing.T) {
		f := newFixture(t, "https://example.test/a.tar.gz")
		f.cfg.Downloads.Agents = []string{"no-separator"}
		err := f.acquire(t, Options{})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAgent)
	})
}

func TestAgentArgs(t *testing.T) {
	agent, err := config.ParseDownloadAgent("scp::/usr/bin/scp -C %u %o")
	require.NoError(t, err)
	assert.Equal(t, []string{"-C", "host:/a", "/cache/a.part"}, agentArgs(agent, "host:/a", "/cache/a.part"))

	agent, err = config.ParseDownloadAgent("rsync::/usr/bin/rsync --no-motd -o%o")
	require.NoError(t, err)
	assert.Equal(t, []string{"--no-motd", "-o/cache/a.part", "rsync://host/a"},
		agentArgs(agent, "rsync://host/a", "/cache/a.part"))
}

func TestAcquireWithAgent(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	upstream := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(upstream, []byte("hello"), 0o644))

	f := newFixture(t, "copy://"+upstream)
	f.cfg.Downloads.Agents = []string{`copy::sh -c 'cp "${1#copy://}" "$2"' sh %u %o`}

	require.NoError(t, f.acquire(t, Options{}))

	got, err := os.ReadFile(filepath.Join(f.dirs.SrcDest, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.NoFileExists(t, filepath.Join(f.dirs.SrcDest, "notes.txt.part"))
	assert.Contains(t, f.eventKinds(), observer.Downloading)
	assert.Empty(t, f.rec.Downloads())
}

func TestAcquireAgentFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	f := newFixture(t, "copy://example.test/notes.txt")
	f.cfg.Downloads.Agents = []string{"copy::false %u %o"}

	err := f.acquire(t, Options{})
	assert.ErrorIs(t, err, pkgerrors.ErrCommandFailed)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestAcquireObserverFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	obs := mocks.NewMockObserver(ctrl)
	obs.EXPECT().Event(gomock.Any()).Return(nil).AnyTimes()
	obs.EXPECT().Download(gomock.Any()).Return(assert.AnError).Times(1)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL+"/a.tar.gz")
	f.coord = New(f.cfg, runner.New(obs))

	err := f.acquire(t, Options{})
	assert.ErrorIs(t, err, pkgerrors.ErrIO)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, hits.Load())
}
