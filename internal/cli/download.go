package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/download"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var opts download.Options

	cmd := &cobra.Command{
		Use:   "download [DIR]",
		Short: "Download the sources of a recipe",
		Long: `Download every source of the recipe in DIR (default: current directory).

Files already present in the source cache are reused, interrupted downloads
are resumed and VCS sources are cloned or updated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(cmd.Context(), recipeDir(args))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); err == nil {
					err = cerr
				}
			}()

			if err := s.coord.Acquire(cmd.Context(), s.recipe, s.dirs, opts); err != nil {
				return err
			}
			logger.Success("Sources downloaded", logger.Fields{"pkgbase": s.recipe.Pkgbase})
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.HoldVer, "holdver", false, "Do not update existing VCS clones")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", 0, "Maximum simultaneous downloads (default: max_downloads)")

	return cmd
}
