package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/hooks"
	"github.com/glorpus-work/pkgsmith/pkg/orchestrator"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var (
		opts       orchestrator.BuildOptions
		ignoreArch bool
	)

	cmd := &cobra.Command{
		Use:   "build [DIR]",
		Short: "Build the recipe in DIR",
		Long: `Download and extract the sources of the recipe in DIR, run prepare() and
pkgver(), then build(), check() and package(). Packaging runs under fakeroot.

Tengo scripts in DIR/hooks named pre-download, post-extract, post-build or
post-package (with a .tengo extension) run around the matching steps.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			s, err := openSession(ctx, recipeDir(args))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); err == nil {
					err = cerr
				}
			}()

			if err := s.checkArch(ignoreArch); err != nil {
				return err
			}
			if err := s.discoverFunctions(ctx); err != nil {
				return err
			}
			if opts.SourceDateEpoch == 0 {
				opts.SourceDateEpoch = s.cfg.Build.SourceDateEpoch
			}

			scripts := hooks.NewTengoExecutor()
			if err := hooks.LoadHooksFromRecipeDir(scripts, s.dirs.StartDir); err != nil {
				return err
			}

			orch := orchestrator.New(s.coord, s.phases, orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
				switch e.Phase {
				case "pkgver":
					logger.Info("Updated version", logger.Fields{"pkgbase": s.recipe.Pkgbase, "pkgver": e.Msg})
				case "done":
					logger.Success("Finished making", logger.Fields{"package": e.Msg})
				default:
					logger.Debug("Build step", logger.Fields{"phase": e.Phase, "id": e.ID, "msg": e.Msg})
				}
			}})
			orch.Scripts = scripts
			return orch.Build(ctx, s.recipe, s.dirs, opts)
		},
	}

	cmd.Flags().BoolVarP(&ignoreArch, "ignorearch", "A", false, "Ignore the recipe's arch list")
	cmd.Flags().BoolVarP(&opts.CleanBuild, "cleanbuild", "C", false, "Remove the src directory before building")
	cmd.Flags().BoolVarP(&opts.NoExtract, "noextract", "e", false, "Do not extract sources (use existing src directory)")
	cmd.Flags().BoolVar(&opts.NoPrepare, "noprepare", false, "Do not run the prepare() function")
	cmd.Flags().BoolVar(&opts.NoBuild, "nobuild", false, "Download and extract sources only")
	cmd.Flags().BoolVar(&opts.NoCheck, "nocheck", false, "Do not run the check() function")
	cmd.Flags().BoolVar(&opts.NoPackage, "nopackage", false, "Do not run package functions")
	cmd.Flags().BoolVar(&opts.Download.HoldVer, "holdver", false, "Do not update VCS sources or the version")
	cmd.Flags().IntVarP(&opts.Download.Concurrency, "concurrency", "j", 0, "Maximum simultaneous downloads (default: max_downloads)")
	cmd.Flags().BoolVarP(&opts.Log, "log", "L", false, "Log function output to files")
	cmd.Flags().Int64Var(&opts.SourceDateEpoch, "source-date-epoch", 0, "Timestamp applied to extracted sources (default: source_date_epoch)")

	return cmd
}
