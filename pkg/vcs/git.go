package vcs

import (
	"context"
	"hash"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/pkgsmith/internal/version"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// Git keeps a mirror clone in the download cache and shares its objects
// with the working copy.
type Git struct{ base }

func (g *Git) git(src *source.Source, op observer.Op, dir string, args ...string) runner.Command {
	cmd := g.command(src, op, dir, "git", args...)
	cmd.Env = []string{"GIT_TERMINAL_PROMPT=0"}
	return cmd
}

// cloneFlags are taken from GITFLAGS, defaulting to a mirror clone.
func cloneFlags() []string {
	if flags := strings.Fields(os.Getenv("GITFLAGS")); len(flags) > 0 {
		return flags
	}
	return []string{"--mirror"}
}

func (g *Git) Fetch(ctx context.Context, src source.Source) error {
	dirs := g.env.Dirs
	path := dirs.DownloadPath(src)

	if !fsutil.Exists(path) || !fsutil.Exists(filepath.Join(path, "objects")) {
		if err := g.event(observer.DownloadingVCS, src); err != nil {
			return err
		}
		args := append([]string{"clone", "--origin=origin"}, cloneFlags()...)
		args = append(args, "--", src.URL, path)
		return g.run(ctx, src, g.git(&src, observer.OpDownloadSource, dirs.SrcDest, args...))
	}
	if g.env.HoldVer {
		return nil
	}

	remote, err := g.read(ctx, src, g.git(&src, observer.OpDownloadSource, path, "config", "--get", "remote.origin.url"))
	if err != nil {
		return err
	}
	if strings.TrimSuffix(remote, ".git") != strings.TrimSuffix(src.URL, ".git") {
		return g.remotesDiffer(src, remote)
	}

	if err := g.event(observer.UpdatingVCS, src); err != nil {
		return err
	}
	return g.run(ctx, src, g.git(&src, observer.OpDownloadSource, path, "fetch", "--all", "-p"))
}

func (g *Git) ref(src source.Source) (string, error) {
	ref, err := g.fragment(src, "origin/HEAD", source.Commit, source.Tag, source.Branch)
	if err == nil && src.Fragment != nil && src.Fragment.Kind == source.Branch {
		ref = "origin/" + ref
	}
	return ref, err
}

// Materialize checks out the selected ref on a local branch named after the
// tool. A tag fragment must resolve to a tag object carrying the same name;
// a moved or renamed tag aborts before any file is checked out.
func (g *Git) Materialize(ctx context.Context, src source.Source) error {
	dirs := g.env.Dirs
	ref, err := g.ref(src)
	if err != nil {
		return err
	}
	if err := g.event(observer.ExtractingVCS, src); err != nil {
		return err
	}

	srcPath := dirs.SrcPath(src)
	if fsutil.Exists(srcPath) {
		if err := g.run(ctx, src, g.git(&src, observer.OpExtractSource, srcPath, "fetch")); err != nil {
			return err
		}
	} else {
		if err := fsutil.EnsureDir(dirs.SrcDir); err != nil {
			return wrap(src, err)
		}
		clone := g.git(&src, observer.OpExtractSource, dirs.SrcDir,
			"clone", "--origin=origin", "--no-checkout", "-s", dirs.DownloadPath(src), src.FileName())
		if err := g.run(ctx, src, clone); err != nil {
			return err
		}
	}

	if src.Fragment != nil && src.Fragment.Kind == source.Tag {
		name, err := g.read(ctx, src, g.git(&src, observer.OpExtractSource, srcPath, "tag", "-l", "--format=%(tag)", ref))
		if err != nil {
			return err
		}
		if name != "" && name != ref {
			e := src.Error(pkgerrors.ErrRefsDiffer)
			e.Detail = ref
			e.Actual = name
			return e
		}
	}

	return g.run(ctx, src, g.git(&src, observer.OpExtractSource, srcPath,
		"checkout", "--force", "--no-track", "-B", version.Name, ref, "--"))
}

func (g *Git) ContentHash(ctx context.Context, src source.Source, newHash func() hash.Hash) (string, error) {
	if src.Fragment == nil {
		return Skip, nil
	}
	ref, err := g.fragment(src, "", source.Tag, source.Commit)
	if err != nil {
		return "", err
	}
	cmd := g.git(&src, observer.OpChecksumSource, g.env.Dirs.DownloadPath(src),
		"-c", "core.abbrev=no", "archive", "--format", "tar", ref)
	return g.digest(ctx, src, newHash, cmd)
}
