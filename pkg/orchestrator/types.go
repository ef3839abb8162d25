//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . SourceManager,PhaseRunner

package orchestrator

import (
	"context"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/download"
	"github.com/glorpus-work/pkgsmith/pkg/hooks"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
)

// SourceManager is the subset of the download coordinator used by the
// orchestrator.
type SourceManager interface {
	Acquire(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, opts download.Options) error
	ExtractAll(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, opts download.ExtractOptions) error
}

// PhaseRunner runs recipe functions. Functions the recipe does not define
// are skipped and return an empty string.
type PhaseRunner interface {
	Run(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, function string, log bool) (string, error)
}

// Orchestrator drives one recipe from sources to packaged files.
type Orchestrator struct {
	Sources SourceManager
	Phases  PhaseRunner
	Hooks   Hooks // Hooks for progress and event notifications
	// Scripts runs user hook scripts around the steps. Optional.
	Scripts hooks.HookManager
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // planning|cleaning|downloading|extracting|pkgver|building|hook|done
	ID    string // function or hook name, where relevant
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// BuildOptions control which steps Build performs.
type BuildOptions struct {
	Download download.Options

	// CleanBuild removes the source directory before extracting.
	CleanBuild bool
	// NoExtract reuses the existing source directory; prepare and pkgver
	// are skipped too.
	NoExtract bool
	NoPrepare bool
	// NoBuild stops after the sources are prepared.
	NoBuild   bool
	NoCheck   bool
	NoPackage bool
	// Log writes each function's output to a log file.
	Log bool

	SourceDateEpoch int64
}
