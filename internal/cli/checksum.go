package cli

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewChecksumCmd creates the checksum command.
func NewChecksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum [DIR]",
		Short: "Print checksums of the downloaded sources",
		Long: `Print a sha256sums array for the sources of the recipe in DIR.
VCS sources are hashed over their checked out content, or reported as SKIP
where the backend cannot do so.`,
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

			sums, err := s.coord.Checksums(cmd.Context(), s.recipe, s.dirs, sha256.New)
			if err != nil {
				return err
			}
			return printSums(os.Stdout, "sha256sums", sums)
		},
	}

	return cmd
}

// printSums writes sums as a shell array assignment, one entry per line.
func printSums(w io.Writer, name string, sums []string) error {
	quoted := make([]string, len(sums))
	for i, sum := range sums {
		quoted[i] = "'" + sum + "'"
	}
	indent := "\n" + strings.Repeat(" ", len(name)+2)
	_, err := fmt.Fprintf(w, "%s=(%s)\n", name, strings.Join(quoted, indent))
	return err
}
