package fakeroot

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
)

// fakeDaemon writes a stand-in for faked that records each spawn in a count
// file, announces key:pid and then idles.
func fakeDaemon(t *testing.T, announce string) (daemon, countFile, libDir string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	countFile = filepath.Join(dir, "spawns")
	daemon = filepath.Join(dir, "faked")
	script := "#!/bin/sh\necho x >> '" + countFile + "'\n" + announce + "\nexec sleep 300\n"
	require.NoError(t, os.WriteFile(daemon, []byte(script), 0o755))

	libDir = filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, LibraryName), nil, 0o644))
	return daemon, countFile, libDir
}

func spawns(t *testing.T, countFile string) int {
	t.Helper()
	data, err := os.ReadFile(countFile)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEnsureSessionSpawnsOnce(t *testing.T) {
	daemon, countFile, libDir := fakeDaemon(t, `echo "12345:$$"`)
	ctx := testContext(t)
	rec := &observer.Recorder{}

	b := New(ctx, Options{LibDirs: []string{libDir}, Daemon: []string{daemon}}, rec)
	defer b.Close()

	var wg sync.WaitGroup
	keys := make([]string, 8)
	errs := make([]error, 8)
	for i := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i], errs[i] = b.EnsureSession(ctx)
		}()
	}
	wg.Wait()

	for i := range keys {
		require.NoError(t, errs[i])
		assert.Equal(t, "12345", keys[i])
	}
	assert.Equal(t, 1, spawns(t, countFile))

	var starting int
	for _, e := range rec.Events() {
		if e.Kind == observer.StartingFakeroot {
			starting++
		}
	}
	assert.Equal(t, 1, starting)
}

func TestCloseKillsDaemon(t *testing.T) {
	daemon, _, libDir := fakeDaemon(t, `echo "777:$$"`)
	ctx := testContext(t)

	b := New(ctx, Options{LibDirs: []string{libDir}, Daemon: []string{daemon}}, nil)
	_, err := b.EnsureSession(ctx)
	require.NoError(t, err)
	pid := b.session.cmd.Process.Pid

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH)

	_, err = b.EnsureSession(ctx)
	assert.Error(t, err)
}

func TestLibraryNotFound(t *testing.T) {
	daemon, countFile, _ := fakeDaemon(t, `echo "1:$$"`)
	dirs := []string{t.TempDir(), t.TempDir()}

	b := New(testContext(t), Options{LibDirs: dirs, Daemon: []string{daemon}}, nil)
	defer b.Close()

	_, err := b.EnsureSession(testContext(t))
	require.ErrorIs(t, err, pkgerrors.ErrComponentNotFound)

	var notFound *pkgerrors.ComponentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, dirs, notFound.Searched)
	assert.Contains(t, err.Error(), dirs[0])
	assert.Contains(t, err.Error(), dirs[1])
	assert.Zero(t, spawns(t, countFile))
}

func TestMissingKey(t *testing.T) {
	daemon, _, libDir := fakeDaemon(t, "exec 1>&-")

	b := New(testContext(t), Options{LibDirs: []string{libDir}, Daemon: []string{daemon}}, nil)
	defer b.Close()

	_, err := b.EnsureSession(testContext(t))
	assert.ErrorIs(t, err, pkgerrors.ErrFakerootKey)
	assert.ErrorIs(t, err, pkgerrors.ErrIO)
}

func TestApply(t *testing.T) {
	daemon, _, libDir := fakeDaemon(t, `echo "4242:$$"`)
	ctx := testContext(t)

	b := New(ctx, Options{LibDirs: []string{libDir}, Daemon: []string{daemon}}, nil)
	defer b.Close()

	cmd := &runner.Command{Name: "true", Env: []string{"KEEP=1"}}
	require.NoError(t, b.Apply(ctx, cmd))

	assert.Contains(t, cmd.Env, "KEEP=1")
	assert.Contains(t, cmd.Env, "FAKEROOTKEY=4242")
	for _, want := range loaderEnv(libDir, LibraryName) {
		assert.Contains(t, cmd.Env, want)
	}
}

func TestLoaderEnv(t *testing.T) {
	env := loaderEnv("/a:/b", "libfake.so")
	require.Len(t, env, 2)
	assert.True(t, strings.HasSuffix(env[0], "=/a:/b"))
	assert.True(t, strings.HasSuffix(env[1], "=libfake.so"))
}
