package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/download"
	"github.com/glorpus-work/pkgsmith/pkg/fakeroot"
	"github.com/glorpus-work/pkgsmith/pkg/phase"
	"github.com/glorpus-work/pkgsmith/pkg/platform"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig loads the configuration, applies the global flags and sets up
// the logger accordingly.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

// recipeDir returns the recipe directory named by the optional positional
// argument.
func recipeDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// session bundles everything a build command needs for one recipe.
type session struct {
	cfg    *config.Config
	recipe *recipe.Recipe
	dirs   *config.PkgbuildDirs
	sup    *runner.Supervisor
	coord  *download.Coordinator
	phases *phase.Runner
	broker *fakeroot.Broker
}

// openSession loads the configuration and the recipe in dir and wires the
// core components to a terminal observer. Callers must Close the session.
func openSession(ctx context.Context, dir string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rcp, err := recipe.Load(dir)
	if err != nil {
		return nil, err
	}

	noColor := NoColor != nil && *NoColor
	sup := runner.New(NewTerminal(os.Stderr, noColor))
	broker := fakeroot.New(ctx, fakeroot.Options{LibDirs: cfg.Build.FakerootLibDirs}, sup.Observer())

	s := &session{
		cfg:    cfg,
		recipe: rcp,
		dirs:   cfg.Dirs(rcp),
		sup:    sup,
		coord:  download.New(cfg, sup),
		phases: phase.New(cfg, sup, broker),
		broker: broker,
	}
	logger.Debug("Loaded recipe", logger.Fields{
		"pkgbase": rcp.Pkgbase,
		"version": rcp.Version(),
		"srcdest": s.dirs.SrcDest,
		"srcdir":  s.dirs.SrcDir,
	})
	return s, nil
}

// discoverFunctions asks the recipe script for its functions when the
// manifest does not list them.
func (s *session) discoverFunctions(ctx context.Context) error {
	if len(s.recipe.Functions) > 0 {
		return nil
	}
	functions, err := s.phases.Functions(ctx, s.recipe, s.dirs)
	if err != nil {
		return fmt.Errorf("failed to list recipe functions: %w", err)
	}
	s.recipe.Functions = functions
	logger.Debug("Discovered recipe functions", logger.Fields{"functions": functions})
	return nil
}

// Close stops the fakeroot daemon if one was started.
func (s *session) Close() error {
	return s.broker.Close()
}

// checkArch fails unless the recipe can be built for the configured
// architecture.
func (s *session) checkArch(ignore bool) error {
	if !platform.IsKnownArch(s.cfg.Build.Arch) {
		logger.Warn("Building for an unknown architecture", logger.Fields{"arch": s.cfg.Build.Arch})
	}
	if ignore {
		return nil
	}
	return platform.Check(s.recipe.Pkgbase, s.recipe.Arch, s.cfg.Build.Arch)
}
