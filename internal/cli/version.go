package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var constraint string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for pkgsmith.

With --check the command fails unless the running version satisfies the
given constraint, for example ">= 0.2".`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if constraint != "" {
				return runVersionCheck(constraint)
			}
			runVersion()
			return nil
		},
	}

	cmd.Flags().StringVar(&constraint, "check", "", "Fail unless the version satisfies this constraint")

	return cmd
}

func runVersion() {
	fmt.Printf("%s version %s\n", version.Name, version.Semver())
	fmt.Printf("Build date: %s\n", version.BuildDate)
	fmt.Printf("Git commit: %s\n", version.GitCommit)
}

func runVersionCheck(constraint string) error {
	ok, err := version.AtLeast(constraint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s does not satisfy %q", version.Name, version.Semver(), constraint)
	}
	return nil
}
