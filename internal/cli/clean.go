package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/internal/logger"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean [DIR]",
		Short: "Remove the build directories of a recipe",
		Long: `Remove the src and pkg directories of the recipe in DIR.

Downloaded sources are kept; use "pkgsmith cache clean" for those.
Use --dry-run to see what would be removed without removing anything.`,
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

			for _, dir := range []string{s.dirs.SrcDir, s.dirs.PkgDir} {
				if _, err := os.Lstat(dir); os.IsNotExist(err) {
					continue
				}
				if dryRun {
					fmt.Printf("Would remove %s\n", dir)
					continue
				}
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("failed to remove %s: %w", dir, err)
				}
				logger.Info("Removed build directory", logger.Fields{"path": dir})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed without removing anything")

	return cmd
}
