package vcs

import (
	"context"
	"errors"
	"hash"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// Mercurial keeps a clone without a working directory in the download
// cache.
type Mercurial struct{ base }

func (m *Mercurial) Fetch(ctx context.Context, src source.Source) error {
	dirs := m.env.Dirs
	path := dirs.DownloadPath(src)

	if !fsutil.Exists(path) {
		if err := m.event(observer.DownloadingVCS, src); err != nil {
			return err
		}
		return m.run(ctx, src, m.command(&src, observer.OpDownloadSource, dirs.SrcDest, "hg", "clone", "-U", src.URL, path))
	}
	if m.env.HoldVer {
		return nil
	}

	remote, err := m.read(ctx, src, m.command(&src, observer.OpDownloadSource, path, "hg", "paths", "default"))
	if err != nil {
		return err
	}
	if remote != src.URL {
		return m.remotesDiffer(src, remote)
	}

	if err := m.event(observer.UpdatingVCS, src); err != nil {
		return err
	}
	return m.run(ctx, src, m.command(&src, observer.OpDownloadSource, path, "hg", "pull"))
}

// defaultRef is the "@" bookmark when the clone has one, else the default
// branch.
func (m *Mercurial) defaultRef(ctx context.Context, src source.Source) (string, error) {
	dirs := m.env.Dirs
	_, err := m.env.Runner.Output(ctx, m.command(&src, observer.OpExtractSource, dirs.SrcDest,
		"hg", "identify", "-r", "@", dirs.DownloadPath(src)))
	switch {
	case err == nil:
		return "@", nil
	case errors.Is(err, pkgerrors.ErrCommandFailed):
		return "default", nil
	default:
		return "", wrap(src, err)
	}
}

func (m *Mercurial) Materialize(ctx context.Context, src source.Source) error {
	dirs := m.env.Dirs
	ref, err := m.fragment(src, "", source.Branch, source.Revision, source.Tag)
	if err != nil {
		return err
	}
	if err := m.event(observer.ExtractingVCS, src); err != nil {
		return err
	}
	if ref == "" {
		if ref, err = m.defaultRef(ctx, src); err != nil {
			return err
		}
	}

	srcPath := dirs.SrcPath(src)
	if fsutil.Exists(srcPath) {
		if err := m.run(ctx, src, m.command(&src, observer.OpExtractSource, srcPath, "hg", "pull")); err != nil {
			return err
		}
		return m.run(ctx, src, m.command(&src, observer.OpExtractSource, srcPath, "hg", "update", "-C", "-r", ref))
	}
	if err := fsutil.EnsureDir(dirs.SrcDir); err != nil {
		return wrap(src, err)
	}
	return m.run(ctx, src, m.command(&src, observer.OpExtractSource, dirs.SrcDir,
		"hg", "clone", "-u", ref, dirs.DownloadPath(src), srcPath))
}

func (m *Mercurial) ContentHash(ctx context.Context, src source.Source, newHash func() hash.Hash) (string, error) {
	if src.Fragment == nil {
		return Skip, nil
	}
	ref, err := m.fragment(src, "", source.Tag, source.Revision)
	if err != nil {
		return "", err
	}
	cmd := m.command(&src, observer.OpChecksumSource, m.env.Dirs.SrcDest,
		"hg", "--repository", m.env.Dirs.DownloadPath(src), "archive", "--type", "tar", "--rev", ref, "-")
	return m.digest(ctx, src, newHash, cmd)
}
