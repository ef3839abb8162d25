package vcs

import (
	"context"
	"hash"

	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// Bzr keeps a treeless branch in the download cache.
type Bzr struct{ base }

func (b *Bzr) Fetch(ctx context.Context, src source.Source) error {
	dirs := b.env.Dirs
	path := dirs.DownloadPath(src)
	url := b.sshURL(src)

	if !fsutil.Exists(path) {
		if err := b.event(observer.DownloadingVCS, src); err != nil {
			return err
		}
		return b.run(ctx, src, b.command(&src, observer.OpDownloadSource, dirs.SrcDest,
			"bzr", "branch", url, path, "--no-tree", "--use-existing-dir"))
	}
	if b.env.HoldVer {
		return nil
	}

	if err := b.event(observer.UpdatingVCS, src); err != nil {
		return err
	}
	return b.run(ctx, src, b.command(&src, observer.OpDownloadSource, path, "bzr", "pull", url))
}

func (b *Bzr) Materialize(ctx context.Context, src source.Source) error {
	dirs := b.env.Dirs
	ref, err := b.fragment(src, "last:1", source.Revision)
	if err != nil {
		return err
	}
	if err := b.event(observer.ExtractingVCS, src); err != nil {
		return err
	}

	repo := dirs.DownloadPath(src)
	srcPath := dirs.SrcPath(src)
	if fsutil.Exists(srcPath) {
		err := b.run(ctx, src, b.command(&src, observer.OpExtractSource, srcPath,
			"bzr", "pull", repo, "-q", "--overwrite", "-r", ref))
		if err != nil {
			return err
		}
		return b.run(ctx, src, b.command(&src, observer.OpExtractSource, srcPath,
			"bzr", "clean-tree", "-q", "--detritus", "--force"))
	}
	if err := fsutil.EnsureDir(dirs.SrcDir); err != nil {
		return wrap(src, err)
	}
	return b.run(ctx, src, b.command(&src, observer.OpExtractSource, dirs.SrcDir,
		"bzr", "checkout", repo, "-r", ref))
}

func (b *Bzr) ContentHash(ctx context.Context, src source.Source, newHash func() hash.Hash) (string, error) {
	if src.Fragment == nil {
		return Skip, nil
	}
	ref, err := b.fragment(src, "", source.Revision)
	if err != nil {
		return "", err
	}
	cmd := b.command(&src, observer.OpChecksumSource, b.env.Dirs.SrcDest,
		"bzr", "export", "--directory", b.env.Dirs.DownloadPath(src), "--format", "tar", "--revision", ref, "-")
	return b.digest(ctx, src, newHash, cmd)
}
