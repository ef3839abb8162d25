package vcs

import (
	"context"
	"hash"
	"os"
	"path/filepath"

	"github.com/glorpus-work/pkgsmith/internal/version"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// SVN keeps a checkout in the download cache and copies it into the source
// directory.
type SVN struct{ base }

func (s *SVN) Fetch(ctx context.Context, src source.Source) error {
	dirs := s.env.Dirs
	ref, err := s.fragment(src, "HEAD", source.Revision)
	if err != nil {
		return err
	}
	path := dirs.DownloadPath(src)

	if !fsutil.Exists(path) {
		if err := s.event(observer.DownloadingVCS, src); err != nil {
			return err
		}
		// A private config dir keeps the user's svn settings and cached
		// credentials out of the checkout.
		configDir := filepath.Join(path, "."+version.Name)
		if err := os.MkdirAll(configDir, fsutil.DirModeDefault); err != nil {
			return wrap(src, err)
		}
		err := s.run(ctx, src, s.command(&src, observer.OpDownloadSource, dirs.SrcDest,
			"svn", "checkout", "-r", ref, "--config-dir", configDir, s.sshURL(src), path))
		if err != nil {
			// Without a working copy the next run would try svn update.
			_ = os.RemoveAll(path)
		}
		return err
	}
	if s.env.HoldVer {
		return nil
	}

	if err := s.event(observer.UpdatingVCS, src); err != nil {
		return err
	}
	return s.run(ctx, src, s.command(&src, observer.OpDownloadSource, path, "svn", "update", "-r", ref))
}

func (s *SVN) Materialize(ctx context.Context, src source.Source) error {
	if _, err := s.fragment(src, "HEAD", source.Revision); err != nil {
		return err
	}
	if err := s.event(observer.ExtractingVCS, src); err != nil {
		return err
	}

	dst := s.env.Dirs.SrcPath(src)
	if err := os.RemoveAll(dst); err != nil {
		return wrap(src, err)
	}
	if err := fsutil.CopyDir(s.env.Dirs.DownloadPath(src), dst); err != nil {
		return wrap(src, err)
	}
	return nil
}

// ContentHash is not defined for svn: there is no canonical export of a
// revision.
func (s *SVN) ContentHash(_ context.Context, src source.Source, _ func() hash.Hash) (string, error) {
	return "", s.noChecksums(src)
}
