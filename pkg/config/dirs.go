package config

import (
	"path/filepath"

	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// PkgbuildDirs is the directory layout one recipe is built in. It is
// specific to the Config and Recipe it was resolved from.
type PkgbuildDirs struct {
	// StartDir holds the recipe.
	StartDir string
	// Recipe is the script sourced by phases.
	Recipe string
	// BuildDir contains SrcDir and PkgDir.
	BuildDir string
	// SrcDir is where sources are extracted for the build.
	SrcDir string
	// PkgDir is where each package's files are installed.
	PkgDir string
	// SrcDest is the download cache.
	SrcDest string
	// LogDest receives phase log files.
	LogDest string
}

// Dirs resolves the layout for r. Without a configured build directory the
// build happens inside the recipe directory.
func (c *Config) Dirs(r *recipe.Recipe) *PkgbuildDirs {
	start := r.Dir

	buildDir := start
	if c.Settings.BuildDir != "" {
		if dir := resolve(c.Settings.BuildDir, start); dir != start {
			buildDir = filepath.Join(dir, r.Pkgbase)
		}
	}

	return &PkgbuildDirs{
		StartDir: start,
		Recipe:   filepath.Join(start, r.Script),
		BuildDir: buildDir,
		SrcDir:   filepath.Join(buildDir, "src"),
		PkgDir:   filepath.Join(buildDir, "pkg"),
		SrcDest:  resolve(c.Settings.SrcDest, start),
		LogDest:  resolve(c.Settings.LogDest, start),
	}
}

func resolve(dir, start string) string {
	switch {
	case dir == "":
		return start
	case filepath.IsAbs(dir):
		return filepath.Clean(dir)
	default:
		return filepath.Join(start, dir)
	}
}

// DownloadPath is where src is expected locally.
func (d *PkgbuildDirs) DownloadPath(src source.Source) string {
	return src.Path(d.SrcDest, d.StartDir)
}

// SrcPath is where src is placed inside SrcDir.
func (d *PkgbuildDirs) SrcPath(src source.Source) string {
	return filepath.Join(d.SrcDir, src.FileName())
}

// PackageDir is the install root for one package.
func (d *PkgbuildDirs) PackageDir(pkgname string) string {
	return filepath.Join(d.PkgDir, pkgname)
}
