package download

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/source"
	"github.com/glorpus-work/pkgsmith/pkg/vcs"
)

// ExtractOptions control ExtractAll.
type ExtractOptions struct {
	// Prepare runs after every source is in place and before the sources
	// are announced ready. The caller typically runs the recipe's prepare
	// function here.
	Prepare func(ctx context.Context) error
	// SourceDateEpoch, when positive, is stamped on every file in the
	// source directory for reproducible builds.
	SourceDateEpoch int64
}

// ExtractAll places every source of r into the source directory in recipe
// order.
func (c *Coordinator) ExtractAll(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, opts ExtractOptions) error {
	if err := c.event(observer.Event{Kind: observer.ExtractingSources}); err != nil {
		return err
	}
	for _, src := range r.Sources {
		if err := c.Extract(ctx, r, dirs, src); err != nil {
			return err
		}
	}
	if opts.Prepare != nil {
		if err := opts.Prepare(ctx); err != nil {
			return err
		}
	}
	if opts.SourceDateEpoch > 0 {
		if err := stampTimes(dirs.SrcDir, opts.SourceDateEpoch); err != nil {
			return err
		}
	}
	return c.event(observer.Event{Kind: observer.SourcesAreReady})
}

// Extract places one source into the source directory. VCS sources get a
// working copy. Files are symlinked from where Acquire left them and
// unpacked next to the link when they are archives not listed in the
// recipe's noextract.
func (c *Coordinator) Extract(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, src source.Source) error {
	if err := os.MkdirAll(dirs.SrcDir, fsutil.DirModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not create source dir")
	}

	if src.VCSKind() != source.NoVCS {
		a, err := vcs.ForSource(src, vcs.Env{Runner: c.runner, Dirs: dirs, Pkgbase: r.Pkgbase})
		if err != nil {
			return err
		}
		return a.Materialize(ctx, src)
	}

	name := src.FileName()
	link := dirs.SrcPath(src)
	if err := fsutil.ReplaceSymlink(dirs.DownloadPath(src), link); err != nil {
		return pkgerrors.Wrapf(err, "could not link %s", name)
	}

	if r.NoExtracts(name) {
		return c.event(observer.Event{Kind: observer.NoExtract, Name: name})
	}

	ok, err := c.archives.IsArchive(ctx, link)
	if err != nil || !ok {
		return err
	}
	if err := c.event(observer.Event{Kind: observer.Extracting, Name: name}); err != nil {
		return err
	}
	if err := c.archives.Extract(ctx, link, dirs.SrcDir); err != nil {
		return pkgerrors.Wrapf(err, "failed to extract %s", name)
	}
	return nil
}

// stampTimes sets the access and modification time of everything below dir,
// symlinks included, to epoch.
func stampTimes(dir string, epoch int64) error {
	ts := unix.NsecToTimespec(epoch * 1e9)
	times := []unix.Timespec{ts, ts}
	return filepath.WalkDir(dir, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := unix.UtimesNanoAt(unix.AT_FDCWD, path, times, unix.AT_SYMLINK_NOFOLLOW); err != nil {
			return fmt.Errorf("failed to set time on %s: %w", path, err)
		}
		return nil
	})
}
