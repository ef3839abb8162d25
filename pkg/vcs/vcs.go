// Package vcs retrieves version-controlled sources.
//
// Each backend implements Adapter: Fetch keeps a bare copy in the download
// cache up to date, Materialize creates a working copy in the source
// directory at the revision the source's fragment selects, and ContentHash
// digests the exported tree of a pinned revision. Every external program is
// run through a runner.Supervisor so output capture and cancellation behave
// like any other build command.
package vcs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// Skip is the content hash reported for sources without a pinned revision.
const Skip = "SKIP"

// Adapter is one VCS backend.
type Adapter interface {
	Kind() source.VCSKind
	// Fetch clones src into the download cache, or updates an existing
	// clone unless the environment holds the current version.
	Fetch(ctx context.Context, src source.Source) error
	// Materialize creates or refreshes the working copy in the source
	// directory at the fragment-selected revision.
	Materialize(ctx context.Context, src source.Source) error
	// ContentHash digests the tree at the pinned revision of the cached
	// clone. Sources without a fragment hash to Skip.
	ContentHash(ctx context.Context, src source.Source, newHash func() hash.Hash) (string, error)
}

// Env is what every adapter works against.
type Env struct {
	Runner  *runner.Supervisor
	Dirs    *config.PkgbuildDirs
	Pkgbase string
	// HoldVer keeps existing clones at their current revision.
	HoldVer bool
}

// For returns the adapter for kind.
func For(kind source.VCSKind, env Env) (Adapter, error) {
	b := base{env: env, kind: kind}
	switch kind {
	case source.Git:
		return &Git{b}, nil
	case source.SVN:
		return &SVN{b}, nil
	case source.Mercurial:
		return &Mercurial{b}, nil
	case source.Fossil:
		return &Fossil{b}, nil
	case source.Bzr:
		return &Bzr{b}, nil
	default:
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrUnknownVCSClient, kind)
	}
}

// ForSource is For(src.VCSKind(), env), failing with a SourceError for
// sources no backend handles.
func ForSource(src source.Source, env Env) (Adapter, error) {
	a, err := For(src.VCSKind(), env)
	if err != nil {
		return nil, src.Error(pkgerrors.ErrUnknownVCSClient)
	}
	return a, nil
}

type base struct {
	env  Env
	kind source.VCSKind
}

func (b *base) Kind() source.VCSKind { return b.kind }

func (b *base) event(kind observer.EventKind, src source.Source) error {
	err := b.env.Runner.Observer().Event(observer.Event{Kind: kind, Name: src.FileName(), VCS: b.kind})
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrIO, err)
	}
	return nil
}

func (b *base) command(src *source.Source, op observer.Op, dir, name string, args ...string) runner.Command {
	return runner.Command{
		Name: name,
		Args: args,
		Dir:  dir,
		Kind: observer.CommandKind{Op: op, Pkgbase: b.env.Pkgbase, Source: src},
	}
}

func (b *base) run(ctx context.Context, src source.Source, cmd runner.Command) error {
	if err := b.env.Runner.Spawn(ctx, cmd); err != nil {
		return wrap(src, err)
	}
	return nil
}

// read runs cmd and returns its trimmed stdout.
func (b *base) read(ctx context.Context, src source.Source, cmd runner.Command) (string, error) {
	out, err := b.env.Runner.Text(ctx, cmd)
	if err != nil {
		return "", wrap(src, err)
	}
	return strings.TrimSpace(out), nil
}

// digest streams cmd's stdout into a fresh hash.
func (b *base) digest(ctx context.Context, src source.Source, newHash func() hash.Hash, cmd runner.Command) (string, error) {
	h := newHash()
	cmd.Stdout = h
	if err := b.run(ctx, src, cmd); err != nil {
		return "", err
	}
	sum := hex.EncodeToString(h.Sum(nil))
	logger.Debug("hashed vcs source", logger.Fields{"source": src.String(), "hash": sum})
	return sum, nil
}

func (b *base) unsupported(src source.Source) error {
	e := src.Error(pkgerrors.ErrUnsupportedFragment)
	e.Backend = b.kind.String()
	e.Detail = string(src.Fragment.Kind)
	return e
}

func (b *base) noChecksums(src source.Source) error {
	e := src.Error(pkgerrors.ErrChecksumsUnsupported)
	e.Backend = b.kind.String()
	return e
}

func (b *base) remotesDiffer(src source.Source, actual string) error {
	e := src.Error(pkgerrors.ErrRemotesDiffer)
	e.Actual = actual
	return e
}

// fragment returns the fragment value when its kind is one of allowed, def
// when src has no fragment, and an unsupported-fragment error otherwise.
func (b *base) fragment(src source.Source, def string, allowed ...source.FragmentKind) (string, error) {
	if src.Fragment == nil {
		return def, nil
	}
	for _, k := range allowed {
		if src.Fragment.Kind == k {
			return src.Fragment.Value, nil
		}
	}
	return "", b.unsupported(src)
}

// sshURL restores the backend prefix some clients need on ssh URLs.
func (b *base) sshURL(src source.Source) string {
	if strings.HasPrefix(src.URL, "ssh://") {
		return b.kind.String() + "+" + src.URL
	}
	return src.URL
}

func wrap(src source.Source, err error) error {
	var se *pkgerrors.SourceError
	if errors.As(err, &se) {
		return err
	}
	e := src.Error(nil)
	e.Err = err
	return e
}
