package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/hooks"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

func mustSource(t *testing.T, s string) source.Source {
	t.Helper()
	src, err := source.Parse(s)
	require.NoError(t, err)
	return src
}

func TestTerminalEvents(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(&buf, false, false)

	require.NoError(t, term.Event(observer.Event{Kind: observer.RetrievingSources}))
	require.NoError(t, term.Event(observer.Event{Kind: observer.Downloading, Name: "hello-1.0.tar.gz"}))
	require.NoError(t, term.Event(observer.Event{Kind: observer.BuildingPackage, Name: "hello", Version: "1.0-1"}))

	assert.Equal(t, "==> Retrieving sources...\n"+
		"  -> downloading hello-1.0.tar.gz...\n"+
		"==> Package hello-1.0-1\n", buf.String())
}

func TestTerminalColor(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(&buf, true, false)

	require.NoError(t, term.Event(observer.Event{Kind: observer.SourcesAreReady}))
	assert.Equal(t, colorGreen+"==>"+colorReset+" "+colorBold+"Sources are ready"+colorReset+"\n", buf.String())
}

func TestTerminalDownloads(t *testing.T) {
	session := observer.Session{Index: 0, Total: 1, Source: mustSource(t, "https://example.test/hello-1.0.tar.gz")}

	t.Run("non-interactive skips progress", func(t *testing.T) {
		var buf bytes.Buffer
		term := newTerminal(&buf, false, false)

		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.BatchStart, Total: 1}))
		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.Init, Session: session}))
		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.Progress, Session: session, Done: 512, Size: 1024}))
		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.Completed, Session: session}))
		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.BatchEnd}))

		assert.Equal(t, "  -> hello-1.0.tar.gz done\n", buf.String())
	})

	t.Run("interactive progress is cleared before the next line", func(t *testing.T) {
		var buf bytes.Buffer
		term := newTerminal(&buf, false, true)

		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.Progress, Session: session, Done: 512, Size: 1024}))
		require.NoError(t, term.Download(observer.DownloadEvent{Kind: observer.Failed, Session: session, Status: 404}))

		assert.Equal(t, clearLine+"  hello-1.0.tar.gz 512 B / 1.0 kB (50%)"+clearLine+"  -> hello-1.0.tar.gz failed (status 404)\n", buf.String())
	})
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "2.0 MB", progressText(2_000_000, 0))
	assert.Equal(t, "1.0 MB / 4.0 MB (25%)", progressText(1_000_000, 4_000_000))
}

func TestTerminalInheritsCommandOutput(t *testing.T) {
	term := newTerminal(&bytes.Buffer{}, false, false)

	policy, err := term.CommandStarted(1, observer.CommandKind{Op: observer.OpRunFunction, Pkgbase: "hello", Function: "build"})
	require.NoError(t, err)
	assert.Equal(t, observer.Inherit, policy.Stdout.Mode)
	assert.Equal(t, observer.Inherit, policy.Stderr.Mode)
}

func TestPrintSums(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSums(&buf, "sha256sums", []string{"aaa", "SKIP"}))
	assert.Equal(t, "sha256sums=('aaa'\n            'SKIP')\n", buf.String())

	buf.Reset()
	require.NoError(t, printSums(&buf, "sha256sums", nil))
	assert.Equal(t, "sha256sums=()\n", buf.String())
}

func TestHookInit(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runHookInit(hooks.PostBuild, dir, false))
	data, err := os.ReadFile(filepath.Join(dir, "hooks", "post-build.tengo"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Post-build hook")

	require.Error(t, runHookInit(hooks.PostBuild, dir, false), "existing scripts are kept")
	require.NoError(t, runHookInit(hooks.PostBuild, dir, true))

	assert.ErrorIs(t, runHookInit("pre-install", dir, false), hooks.ErrHookExecution)
}

func TestCheckArch(t *testing.T) {
	var buf bytes.Buffer
	logger.SetTestOutput(&buf)
	logger.InitLogger("info", logger.FormatText)
	t.Cleanup(func() {
		logger.UnsetTestOutput()
		logger.InitLogger("info", logger.FormatText)
	})

	cfg := config.DefaultConfig()
	cfg.Build.Arch = "x86_64"
	s := &session{cfg: cfg, recipe: &recipe.Recipe{Pkgbase: "hello", Arch: []string{"aarch64"}}}

	assert.ErrorIs(t, s.checkArch(false), errors.ErrUnsupportedArch)
	require.NoError(t, s.checkArch(true))
	assert.Empty(t, buf.String())

	cfg.Build.Arch = "s390x"
	s.recipe.Arch = []string{"any"}
	require.NoError(t, s.checkArch(false))
	assert.Contains(t, buf.String(), "Building for an unknown architecture")
	assert.Contains(t, buf.String(), "arch=s390x")
}
