package errors

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	base := errors.New("original error")

	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "context %d", 1))

	err := Wrap(base, "reading PKGBUILD")
	require.Error(t, err)
	assert.Equal(t, "reading PKGBUILD: original error", err.Error())
	assert.ErrorIs(t, err, base)

	err = Wrapf(base, "fetching %s from %d mirrors", "a.tar.gz", 3)
	assert.Equal(t, "fetching a.tar.gz from 3 mirrors: original error", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestCommandError(t *testing.T) {
	cause := &exec.ExitError{}
	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "exit status",
			err:  &CommandError{Kind: ErrCommandFailed, Args: []string{"git", "fetch", "--all"}, ExitCode: 128, Err: cause},
			want: "git fetch --all: exited with status 128",
		},
		{
			name: "signal",
			err:  &CommandError{Kind: ErrCommandFailed, Args: []string{"sleep", "10"}, ExitCode: -1, Signal: "killed"},
			want: "sleep 10: terminated by signal killed",
		},
		{
			name: "quotes arguments with spaces",
			err:  &CommandError{Kind: ErrCannotExecute, Args: []string{"no-such", "a b"}, Err: errors.New("not found")},
			want: "no-such 'a b': cannot execute: not found",
		},
		{
			name: "io names the stream",
			err:  &CommandError{Kind: ErrIO, Args: []string{"cat"}, Stream: "stderr", Err: errors.New("broken pipe")},
			want: "cat: i/o failure on stderr: broken pipe",
		},
		{
			name: "invalid text",
			err:  &CommandError{Kind: ErrInvalidText, Args: []string{"cat", "notes.txt"}},
			want: "cat notes.txt: invalid utf-8 output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Kind)
		})
	}

	var exitErr *exec.ExitError
	assert.ErrorAs(t, tests[0].err, &exitErr)
}

func TestSourceError(t *testing.T) {
	tests := []struct {
		name string
		err  *SourceError
		want string
	}{
		{
			name: "missing",
			err:  &SourceError{Kind: ErrSourceMissing, Source: "local.patch", Name: "local.patch"},
			want: "failed to retrieve sources: can't find source local.patch",
		},
		{
			name: "status",
			err:  &SourceError{Kind: ErrDownloadStatus, Source: "https://example.test/a.tar.gz", Name: "a.tar.gz", Status: 404},
			want: "failed to retrieve sources: a.tar.gz (status 404)",
		},
		{
			name: "remotes differ",
			err:  &SourceError{Kind: ErrRemotesDiffer, Name: "repo", URL: "https://example.test/repo.git"},
			want: "failed to retrieve sources: repo is not a clone of https://example.test/repo.git",
		},
		{
			name: "unsupported fragment",
			err:  &SourceError{Kind: ErrUnsupportedFragment, Source: "svn+https://example.test/trunk#branch=x", Backend: "svn", Detail: "branch"},
			want: "failed to retrieve sources: svn+https://example.test/trunk#branch=x: svn does not support fragment branch",
		},
		{
			name: "forged tag",
			err:  &SourceError{Kind: ErrRefsDiffer, Name: "repo", Detail: "v1.0", Actual: "v1.0-evil"},
			want: "failed to retrieve sources: repo: failed to checkout version v1.0, the git tag has been forged (got v1.0-evil)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Kind)
		})
	}
}

func TestComponentNotFoundError(t *testing.T) {
	err := error(&ComponentNotFoundError{Component: "libfakeroot.so", Searched: []string{"/usr/lib/libfakeroot", "/opt/lib"}})

	assert.ErrorIs(t, err, ErrComponentNotFound)
	assert.Contains(t, err.Error(), "/usr/lib/libfakeroot, /opt/lib")
	assert.Contains(t, err.Error(), "libfakeroot.so")
}
