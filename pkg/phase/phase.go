// Package phase runs the functions of a recipe script.
//
// Each function runs in a fresh bash reading an embedded driver from stdin.
// The driver sources the recipe, changes into the working directory and
// calls the function under errexit, so the first failing command fails the
// phase. build, check and package functions get the compiler environment;
// package functions additionally run under fakeroot.
package phase

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/buildenv"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fakeroot"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
)

//go:embed driver.sh
var driver []byte

// Shell is the interpreter the driver runs in.
const Shell = "bash"

// Request describes one function invocation.
type Request struct {
	Recipe   *recipe.Recipe
	Dirs     *config.PkgbuildDirs
	Function string
	// PkgName is exported as pkgname and selects the package directory.
	PkgName string
	// Capture returns the function's stdout instead of forwarding it.
	Capture bool
	// Log tees all output to a file in LogDest.
	Log bool
}

// Runner runs recipe functions.
type Runner struct {
	cfg      *config.Config
	sup      *runner.Supervisor
	fakeroot *fakeroot.Broker
}

// New creates a Runner. A nil broker runs package functions without
// fakeroot, which is only correct when building as root.
func New(cfg *config.Config, sup *runner.Supervisor, broker *fakeroot.Broker) *Runner {
	return &Runner{cfg: cfg, sup: sup, fakeroot: broker}
}

func isPackage(function string) bool {
	return strings.HasPrefix(function, "package")
}

func needsBuildEnv(function string) bool {
	return function == "build" || function == "check" || isPackage(function)
}

// LogPath is where the log of function is written.
func (r *Runner) LogPath(rcp *recipe.Recipe, dirs *config.PkgbuildDirs, function string) string {
	name := fmt.Sprintf("%s-%s-%s-%s.log", rcp.Pkgbase, rcp.Version(), r.cfg.Build.Arch, function)
	return filepath.Join(dirs.LogDest, name)
}

// RunPhase runs a single function and returns its captured stdout, which is
// empty unless req.Capture is set.
func (r *Runner) RunPhase(ctx context.Context, req Request) (string, error) {
	rcp, dirs := req.Recipe, req.Dirs
	if !rcp.HasFunction(req.Function) {
		return "", fmt.Errorf("%w: %s", pkgerrors.ErrUnknownFunction, req.Function)
	}

	if err := r.sup.Observer().Event(observer.Event{Kind: observer.RunningFunction, Name: req.Function}); err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrIO, err)
	}

	workdir := dirs.SrcDir
	if req.Function == "verify" {
		workdir = dirs.StartDir
	}
	pkgname := req.PkgName
	if pkgname == "" {
		pkgname = rcp.Pkgbase
	}

	args := []string{"--noprofile", "--norc", "-s", "-", "run", dirs.Recipe, workdir, req.Function}
	if req.PkgName != "" {
		args = append(args, req.PkgName)
	}

	op := observer.OpRunFunction
	if isPackage(req.Function) {
		op = observer.OpBuildPackage
	}
	cmd := runner.Command{
		Name: Shell,
		Args: args,
		Dir:  dirs.StartDir,
		Env: []string{
			"CARCH=" + r.cfg.Build.Arch,
			"startdir=" + dirs.StartDir,
			"srcdir=" + dirs.SrcDir,
			"pkgdir=" + dirs.PackageDir(pkgname),
		},
		Input: driver,
		Kind:  observer.CommandKind{Op: op, Pkgbase: rcp.Pkgbase, Function: req.Function},
	}

	if needsBuildEnv(req.Function) {
		cmd.Env = append(cmd.Env, buildenv.Generate(r.cfg, dirs, rcp)...)
	}
	if isPackage(req.Function) && r.fakeroot != nil {
		if err := r.fakeroot.Apply(ctx, &cmd); err != nil {
			return "", err
		}
	}

	if req.Log {
		if err := os.MkdirAll(dirs.LogDest, fsutil.DirModeDefault); err != nil {
			return "", pkgerrors.Wrap(err, "could not create log dir")
		}
		path := r.LogPath(rcp, dirs, req.Function)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
		if err != nil {
			return "", pkgerrors.Wrapf(err, "could not open log file %s", path)
		}
		defer func() { _ = f.Close() }()
		cmd.Log = f
	}

	logger.Debug("Running function", logger.Fields{
		"pkgbase":  rcp.Pkgbase,
		"function": req.Function,
		"workdir":  workdir,
	})

	if req.Capture {
		return r.sup.Text(ctx, cmd)
	}
	return "", r.sup.Spawn(ctx, cmd)
}

// Functions lists the functions the recipe script defines, for recipes whose
// manifest does not declare them.
func (r *Runner) Functions(ctx context.Context, rcp *recipe.Recipe, dirs *config.PkgbuildDirs) ([]string, error) {
	out, err := r.sup.Text(ctx, runner.Command{
		Name:  Shell,
		Args:  []string{"--noprofile", "--norc", "-s", "-", "functions", dirs.Recipe},
		Dir:   dirs.StartDir,
		Input: driver,
		Kind:  observer.CommandKind{Op: observer.OpRunFunction, Pkgbase: rcp.Pkgbase},
	})
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// Run runs function if the recipe defines it. "package" runs every package
// function; "pkgver" captures and returns the printed version.
func (r *Runner) Run(ctx context.Context, rcp *recipe.Recipe, dirs *config.PkgbuildDirs, function string, log bool) (string, error) {
	if !rcp.HasFunction(function) {
		return "", nil
	}
	switch function {
	case "package":
		return "", r.RunPackage(ctx, rcp, dirs, log)
	case "pkgver":
		out, err := r.RunPhase(ctx, Request{Recipe: rcp, Dirs: dirs, Function: function, Capture: true, Log: log})
		return strings.TrimSpace(out), err
	default:
		return r.RunPhase(ctx, Request{Recipe: rcp, Dirs: dirs, Function: function, Log: log})
	}
}

// RunPackage runs "package" for the first package, or "package_<name>" for
// every split package, each into its own package directory.
func (r *Runner) RunPackage(ctx context.Context, rcp *recipe.Recipe, dirs *config.PkgbuildDirs, log bool) error {
	for _, fn := range rcp.PackageFunctions() {
		pkgname := strings.TrimPrefix(fn, "package_")
		if fn == "package" {
			pkgname = rcp.Pkgbase
			if len(rcp.Packages) > 0 {
				pkgname = rcp.Packages[0]
			}
		}
		if err := r.sup.Observer().Event(observer.Event{
			Kind:    observer.BuildingPackage,
			Name:    pkgname,
			Version: rcp.Version(),
		}); err != nil {
			return fmt.Errorf("%w: %w", pkgerrors.ErrIO, err)
		}
		if err := os.MkdirAll(dirs.PackageDir(pkgname), fsutil.DirModeDefault); err != nil {
			return pkgerrors.Wrapf(err, "could not create package dir for %s", pkgname)
		}
		_, err := r.RunPhase(ctx, Request{Recipe: rcp, Dirs: dirs, Function: fn, PkgName: pkgname, Log: log})
		if err != nil {
			return err
		}
	}
	return nil
}
