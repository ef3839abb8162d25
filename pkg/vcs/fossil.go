package vcs

import (
	"context"
	"hash"
	"path/filepath"
	"strings"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// Fossil keeps the repository database in the download cache and opens a
// checkout of it in the source directory.
type Fossil struct{ base }

func (f *Fossil) Fetch(ctx context.Context, src source.Source) error {
	dirs := f.env.Dirs
	path := dirs.DownloadPath(src)

	if !fsutil.Exists(path) {
		if err := f.event(observer.DownloadingVCS, src); err != nil {
			return err
		}
		return f.run(ctx, src, f.command(&src, observer.OpDownloadSource, dirs.SrcDest, "fossil", "clone", src.URL, path))
	}
	if f.env.HoldVer {
		return nil
	}

	remote, err := f.read(ctx, src, f.command(&src, observer.OpDownloadSource, dirs.SrcDest, "fossil", "remote", "-R", path))
	if err != nil {
		return err
	}
	if remote != src.URL {
		return f.remotesDiffer(src, remote)
	}

	if err := f.event(observer.UpdatingVCS, src); err != nil {
		return err
	}
	return f.run(ctx, src, f.command(&src, observer.OpDownloadSource, dirs.SrcDest, "fossil", "pull", "-R", path))
}

func (f *Fossil) Materialize(ctx context.Context, src source.Source) error {
	dirs := f.env.Dirs
	ref, err := f.fragment(src, "tip", source.Branch, source.Commit, source.Tag)
	if err != nil {
		return err
	}
	if err := f.event(observer.ExtractingVCS, src); err != nil {
		return err
	}

	repo := dirs.DownloadPath(src)
	srcPath := dirs.SrcPath(src)
	if fsutil.Exists(srcPath) {
		if !fsutil.Exists(filepath.Join(srcPath, ".fslckout")) {
			return src.Error(pkgerrors.ErrNotCheckedOut)
		}
		info, err := f.read(ctx, src, f.command(&src, observer.OpExtractSource, srcPath, "fossil", "info"))
		if err != nil {
			return err
		}
		if opened := checkoutRepository(info); filepath.Clean(opened) != filepath.Clean(repo) {
			return f.remotesDiffer(src, opened)
		}
	} else {
		if err := fsutil.EnsureDir(srcPath); err != nil {
			return wrap(src, err)
		}
		if err := f.run(ctx, src, f.command(&src, observer.OpExtractSource, srcPath, "fossil", "open", repo)); err != nil {
			return err
		}
	}

	return f.run(ctx, src, f.command(&src, observer.OpExtractSource, srcPath, "fossil", "update", ref))
}

// checkoutRepository extracts the repository path from `fossil info`.
func checkoutRepository(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if rest, ok := strings.CutPrefix(line, "repository:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// ContentHash is not defined for fossil.
func (f *Fossil) ContentHash(_ context.Context, src source.Source, _ func() hash.Hash) (string, error) {
	return "", f.noChecksums(src)
}
