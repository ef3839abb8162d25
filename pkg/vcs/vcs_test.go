package vcs

import (
	"context"
	"crypto/sha256"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/observer/mocks"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

func requireTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}

func testDirs(t *testing.T) *config.PkgbuildDirs {
	t.Helper()
	root := t.TempDir()
	dirs := &config.PkgbuildDirs{
		StartDir: root,
		Recipe:   filepath.Join(root, "PKGBUILD"),
		BuildDir: root,
		SrcDir:   filepath.Join(root, "src"),
		PkgDir:   filepath.Join(root, "pkg"),
		SrcDest:  filepath.Join(root, "cache"),
		LogDest:  root,
	}
	require.NoError(t, os.MkdirAll(dirs.SrcDest, 0o755))
	return dirs
}

func TestForUnknown(t *testing.T) {
	_, err := For(source.NoVCS, Env{})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownVCSClient)

	_, err = ForSource(source.MustParse("https://example.test/a.tar.gz"), Env{})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownVCSClient)
	assert.Contains(t, err.Error(), "https://example.test/a.tar.gz")

	for _, kind := range []source.VCSKind{source.Git, source.SVN, source.Mercurial, source.Fossil, source.Bzr} {
		a, err := For(kind, Env{})
		require.NoError(t, err)
		assert.Equal(t, kind, a.Kind())
	}
}

func TestUnsupportedFragments(t *testing.T) {
	tests := []string{
		"git+https://example.test/repo.git#revision=12",
		"svn+https://example.test/trunk#branch=stable",
		"hg+https://example.test/repo#commit=abc",
		"fossil+https://example.test/repo#revision=12",
		"bzr+https://example.test/repo#tag=v1",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			// A strict mock fails the test if anything is reported or run.
			obs := mocks.NewMockObserver(gomock.NewController(t))
			src := source.MustParse(raw)
			a, err := ForSource(src, Env{Runner: runner.New(obs), Dirs: testDirs(t)})
			require.NoError(t, err)

			err = a.Materialize(testContext(t), src)
			require.ErrorIs(t, err, pkgerrors.ErrUnsupportedFragment)
			assert.Contains(t, err.Error(), src.VCSKind().String()+" does not support fragment "+string(src.Fragment.Kind))
		})
	}
}

func TestContentHashWithoutTools(t *testing.T) {
	obs := mocks.NewMockObserver(gomock.NewController(t))
	env := Env{Runner: runner.New(obs), Dirs: testDirs(t)}
	ctx := testContext(t)

	for _, raw := range []string{"svn+https://example.test/trunk#revision=3", "fossil+https://example.test/repo"} {
		src := source.MustParse(raw)
		a, err := ForSource(src, env)
		require.NoError(t, err)
		_, err = a.ContentHash(ctx, src, sha256.New)
		assert.ErrorIs(t, err, pkgerrors.ErrChecksumsUnsupported)
		assert.Contains(t, err.Error(), "checksums not supported for "+src.VCSKind().String())
	}

	for _, raw := range []string{"git+https://example.test/r.git", "hg+https://example.test/r", "bzr+https://example.test/r"} {
		src := source.MustParse(raw)
		a, err := ForSource(src, env)
		require.NoError(t, err)
		sum, err := a.ContentHash(ctx, src, sha256.New)
		require.NoError(t, err)
		assert.Equal(t, Skip, sum)
	}

	src := source.MustParse("hg+https://example.test/r#branch=stable")
	a, err := ForSource(src, env)
	require.NoError(t, err)
	_, err = a.ContentHash(ctx, src, sha256.New)
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedFragment)
}

func TestSSHURL(t *testing.T) {
	b := &base{kind: source.SVN}
	assert.Equal(t, "svn+ssh://host/repo", b.sshURL(source.MustParse("svn+ssh://host/repo")))
	assert.Equal(t, "https://host/repo", b.sshURL(source.MustParse("svn+https://host/repo")))

	b = &base{kind: source.Bzr}
	assert.Equal(t, "bzr+ssh://host/repo", b.sshURL(source.MustParse("bzr+ssh://host/repo")))
}

func TestCheckoutRepository(t *testing.T) {
	info := "project-name: demo\nrepository:   /cache/demo.fossil\nlocal-root:   /src/demo/\n"
	assert.Equal(t, "/cache/demo.fossil", checkoutRepository(info))
	assert.Empty(t, checkoutRepository("local-root: /x\n"))
}

func TestEventFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	obs := mocks.NewMockObserver(ctrl)
	obs.EXPECT().Event(gomock.Any()).Return(assert.AnError)

	src := source.MustParse("svn+https://example.test/trunk")
	a, err := ForSource(src, Env{Runner: runner.New(obs), Dirs: testDirs(t)})
	require.NoError(t, err)

	err = a.Materialize(testContext(t), src)
	assert.ErrorIs(t, err, pkgerrors.ErrIO)
	assert.ErrorIs(t, err, assert.AnError)
}

func quietRunner() (*runner.Supervisor, *observer.Recorder) {
	rec := &observer.Recorder{Policy: observer.Policy(observer.Null)}
	return runner.New(rec), rec
}
