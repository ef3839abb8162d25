package download

import (
	"context"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/source"
	"github.com/glorpus-work/pkgsmith/pkg/vcs"
)

// Checksums digests every acquired source of r, in recipe order. Files are
// hashed as stored; VCS sources hash the exported tree of their pinned
// revision, or vcs.Skip when they follow a moving ref.
func (c *Coordinator) Checksums(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, newHash func() hash.Hash) ([]string, error) {
	if err := c.event(observer.Event{Kind: observer.GeneratingChecksums}); err != nil {
		return nil, err
	}

	sums := make([]string, 0, len(r.Sources))
	env := vcs.Env{Runner: c.runner, Dirs: dirs, Pkgbase: r.Pkgbase}
	for _, src := range r.Sources {
		var (
			sum string
			err error
		)
		if src.VCSKind() != source.NoVCS {
			var a vcs.Adapter
			if a, err = vcs.ForSource(src, env); err == nil {
				sum, err = a.ContentHash(ctx, src, newHash)
			}
		} else {
			sum, err = hashFile(dirs.DownloadPath(src), newHash())
			if os.IsNotExist(err) {
				err = src.Error(pkgerrors.ErrSourceMissing)
			}
		}
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	return sums, nil
}

func hashFile(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(h, f); err != nil {
		return "", pkgerrors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
