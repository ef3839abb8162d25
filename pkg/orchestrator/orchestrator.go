// Package orchestrator sequences the build steps of one recipe.
package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/download"
	"github.com/glorpus-work/pkgsmith/pkg/hooks"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Build runs the full pipeline for r: download, extract with prepare(),
// pkgver(), then build(), check() and package(), with hook scripts in
// between. Download.HoldVer also keeps the recipe version. A pkgver() result
// replaces r.Pkgver.
func (o *Orchestrator) Build(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, opts BuildOptions) error {
	if o.Sources == nil {
		return fmt.Errorf("source manager is not configured")
	}
	if o.Phases == nil {
		return fmt.Errorf("phase runner is not configured")
	}

	emit(o.Hooks, Event{Phase: "planning", Msg: r.Pkgbase + "-" + r.Version()})

	if opts.CleanBuild && !opts.NoExtract {
		emit(o.Hooks, Event{Phase: "cleaning", Msg: dirs.SrcDir})
		if err := os.RemoveAll(dirs.SrcDir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dirs.SrcDir, err)
		}
	}

	if err := o.runScript(ctx, hooks.PreDownload, r, dirs); err != nil {
		return err
	}

	emit(o.Hooks, Event{Phase: "downloading"})
	if err := o.Sources.Acquire(ctx, r, dirs, opts.Download); err != nil {
		return err
	}

	if !opts.NoExtract {
		if err := o.extract(ctx, r, dirs, opts); err != nil {
			return err
		}
		if !opts.Download.HoldVer {
			if err := o.updatePkgver(ctx, r, dirs, opts.Log); err != nil {
				return err
			}
		}
		if err := o.runScript(ctx, hooks.PostExtract, r, dirs); err != nil {
			return err
		}
	}

	if opts.NoBuild {
		emit(o.Hooks, Event{Phase: "done", Msg: "sources prepared"})
		return nil
	}

	steps := []string{"build"}
	if !opts.NoCheck {
		steps = append(steps, "check")
	}
	if err := o.runSteps(ctx, r, dirs, steps, opts.Log); err != nil {
		return err
	}
	if err := o.runScript(ctx, hooks.PostBuild, r, dirs); err != nil {
		return err
	}

	if !opts.NoPackage {
		if err := o.runSteps(ctx, r, dirs, []string{"package"}, opts.Log); err != nil {
			return err
		}
		if err := o.runScript(ctx, hooks.PostPackage, r, dirs); err != nil {
			return err
		}
	}

	emit(o.Hooks, Event{Phase: "done", Msg: r.Pkgbase + "-" + r.Version()})
	return nil
}

func (o *Orchestrator) runSteps(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, steps []string, log bool) error {
	for _, fn := range steps {
		emit(o.Hooks, Event{Phase: "building", ID: fn})
		if _, err := o.Phases.Run(ctx, r, dirs, fn, log); err != nil {
			return err
		}
	}
	return nil
}

// runScript runs the user script for hookType, if one is registered.
func (o *Orchestrator) runScript(ctx context.Context, hookType hooks.HookType, r *recipe.Recipe, dirs *config.PkgbuildDirs) error {
	if o.Scripts == nil || !o.Scripts.HasHook(hookType) {
		return nil
	}
	emit(o.Hooks, Event{Phase: "hook", ID: string(hookType)})
	return o.Scripts.Execute(ctx, hookType, hooks.HookContext{
		Pkgbase:  r.Pkgbase,
		Version:  r.Version(),
		StartDir: dirs.StartDir,
		SrcDir:   dirs.SrcDir,
		PkgDir:   dirs.PkgDir,
	})
}

func (o *Orchestrator) extract(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, opts BuildOptions) error {
	emit(o.Hooks, Event{Phase: "extracting"})
	extractOpts := download.ExtractOptions{SourceDateEpoch: opts.SourceDateEpoch}
	if !opts.NoPrepare {
		extractOpts.Prepare = func(ctx context.Context) error {
			_, err := o.Phases.Run(ctx, r, dirs, "prepare", opts.Log)
			return err
		}
	}
	return o.Sources.ExtractAll(ctx, r, dirs, extractOpts)
}

// updatePkgver replaces r.Pkgver with what pkgver() prints, if the recipe
// defines it.
func (o *Orchestrator) updatePkgver(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, log bool) error {
	out, err := o.Phases.Run(ctx, r, dirs, "pkgver", log)
	if err != nil {
		return err
	}
	if out == "" || out == r.Pkgver {
		return nil
	}

	updated := *r
	updated.Pkgver = out
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("pkgver() generated an invalid version: %w", err)
	}
	emit(o.Hooks, Event{Phase: "pkgver", ID: "pkgver", Msg: r.Pkgver + " -> " + out})
	r.Pkgver = out
	return nil
}

// New constructs an Orchestrator. Hooks can be empty if no event handling is
// needed.
func New(sources SourceManager, phases PhaseRunner, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Sources: sources,
		Phases:  phases,
		Hooks:   hooks,
	}
}
