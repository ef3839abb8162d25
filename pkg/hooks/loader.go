package hooks

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/glorpus-work/pkgsmith/pkg/errors"
)

// HookFileExtension is the extension of hook scripts.
const HookFileExtension = ".tengo"

// HookDir is the directory inside a recipe directory holding hook scripts.
const HookDir = "hooks"

// LoadHooksFromRecipeDir loads <recipeDir>/hooks/<hook-type>.tengo into
// manager. A missing hooks directory is not an error.
func LoadHooksFromRecipeDir(manager HookManager, recipeDir string) error {
	hooksDir := filepath.Join(recipeDir, HookDir)
	if _, err := os.Stat(hooksDir); err != nil {
		return nil
	}
	if err := loadHooksFromDir(manager, hooksDir); err != nil {
		return errors.Wrapf(err, "error loading hooks from %s", hooksDir)
	}
	return nil
}

// loadHooksFromDir loads all hooks files from a directory.
func loadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read hooks directory %s", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !slices.Contains(Types(), hookType) {
			return ErrUnsupportedHookEvent(string(hookType))
		}

		hookPath := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(hookPath)
		if err != nil {
			return errors.Wrapf(err, "error reading hooks file %s", hookPath)
		}

		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return errors.Wrapf(err, "error adding hooks %s", hookType)
		}
	}

	return nil
}

// HookTemplate generates a template for a hooks script.
func HookTemplate(hookType HookType) string {
	const vars = `// Available variables:
// - pkgbase: string - recipe name
// - version: string - full version ([epoch:]pkgver-pkgrel)
// - startdir: string - recipe directory
// - srcdir: string - extracted sources
// - pkgdir: string - package install roots
// Assign a non-empty string to a top-level err to fail the build.`

	switch hookType {
	case PreDownload:
		return `// Pre-download hook
// This script runs before sources are retrieved
` + vars + `

// Example: refuse to build from a dirty recipe directory
/*
os := import("os")
err := ""
if !is_error(os.stat(startdir + "/.dirty")) {
    err = "recipe directory is dirty"
}
*/`

	case PostExtract:
		return `// Post-extract hook
// This script runs after sources are extracted and prepare() ran
` + vars

	case PostBuild:
		return `// Post-build hook
// This script runs after build() and check()
` + vars

	case PostPackage:
		return `// Post-package hook
// This script runs after every package function
` + vars

	default:
		return "// Unknown hooks type: " + string(hookType)
	}
}
