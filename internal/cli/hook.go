package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/hooks"
)

// NewHookCmd creates the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage recipe hook scripts",
	}

	cmd.AddCommand(newHookInitCmd())

	return cmd
}

func newHookInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init TYPE [DIR]",
		Short: "Create a hook script from a template",
		Long: fmt.Sprintf(`Write a template hook script of TYPE into the hooks directory of the
recipe in DIR. TYPE is one of %v.`, hooks.Types()),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHookInit(hooks.HookType(args[0]), recipeDir(args[1:]), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing hook script")

	return cmd
}

func runHookInit(hookType hooks.HookType, dir string, force bool) error {
	if !slices.Contains(hooks.Types(), hookType) {
		return hooks.ErrUnsupportedHookEvent(string(hookType))
	}

	hooksDir := filepath.Join(dir, hooks.HookDir)
	if err := fsutil.EnsureDir(hooksDir); err != nil {
		return fmt.Errorf("failed to create %s: %w", hooksDir, err)
	}

	path := filepath.Join(hooksDir, string(hookType)+hooks.HookFileExtension)
	if fsutil.Exists(path) && !force {
		return fmt.Errorf("hook script already exists at %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(hooks.HookTemplate(hookType)+"\n"), fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to write hook script: %w", err)
	}

	logger.Success("Hook script created", logger.Fields{"path": path})
	return nil
}
