package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var log bool

	cmd := &cobra.Command{
		Use:   "run FUNCTION [DIR]",
		Short: "Run a recipe function",
		Long: `Run one function of the recipe in DIR, for example build, check or package.

"package" runs every package function of a split recipe and "pkgver" prints
the version it reports. A function the recipe does not define is skipped.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			s, err := openSession(ctx, recipeDir(args[1:]))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); err == nil {
					err = cerr
				}
			}()

			if err := s.discoverFunctions(ctx); err != nil {
				return err
			}
			out, err := s.phases.Run(ctx, s.recipe, s.dirs, args[0], log)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Println(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&log, "log", "L", false, "Write function output to a log file")

	return cmd
}
