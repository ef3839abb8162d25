package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/pkg/download"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	var (
		noPrepare bool
		log       bool
	)

	cmd := &cobra.Command{
		Use:   "extract [DIR]",
		Short: "Extract downloaded sources into the build directory",
		Long: `Extract the sources of the recipe in DIR into its src directory and run
its prepare() function, if any. Sources must have been downloaded first.`,
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

			opts := download.ExtractOptions{SourceDateEpoch: s.cfg.Build.SourceDateEpoch}
			if !noPrepare {
				if err := s.discoverFunctions(ctx); err != nil {
					return err
				}
				opts.Prepare = func(ctx context.Context) error {
					_, err := s.phases.Run(ctx, s.recipe, s.dirs, "prepare", log)
					return err
				}
			}
			return s.coord.ExtractAll(ctx, s.recipe, s.dirs, opts)
		},
	}

	cmd.Flags().BoolVar(&noPrepare, "no-prepare", false, "Do not run the prepare() function")
	cmd.Flags().BoolVarP(&log, "log", "L", false, "Write prepare() output to a log file")

	return cmd
}
