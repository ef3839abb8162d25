package hooks_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/pkgsmith/pkg/hooks"
)

func TestTengoExecutor(t *testing.T) {
	executor := hooks.NewTengoExecutor()
	hc := hooks.HookContext{
		Pkgbase:  "hello",
		Version:  "1.0-1",
		StartDir: "/build/hello",
		SrcDir:   "/build/hello/src",
		PkgDir:   "/build/hello/pkg",
		Vars: map[string]interface{}{
			"customVar": "customValue",
		},
	}
	ctx := context.Background()

	t.Run("Execute valid script", func(t *testing.T) {
		executor.AddScript(hooks.PreDownload, `// This is a valid script that does nothing`)
		assert.NoError(t, executor.Execute(ctx, hooks.PreDownload, hc))
	})

	t.Run("Execute script with runtime error", func(t *testing.T) {
		executor.AddScript(hooks.PostExtract, `non_existent_function()`)

		err := executor.Execute(ctx, hooks.PostExtract, hc)
		require.ErrorIs(t, err, hooks.ErrHookExecution)
		assert.Contains(t, err.Error(), "post-extract")
	})

	t.Run("Script reports failure through err", func(t *testing.T) {
		executor.AddScript(hooks.PostBuild, `
			err := ""
			if version != "2.0-1" {
				err = "unexpected version " + version
			}
		`)

		err := executor.Execute(ctx, hooks.PostBuild, hc)
		require.ErrorIs(t, err, hooks.ErrHookScript)
		assert.Contains(t, err.Error(), "unexpected version 1.0-1")
	})

	t.Run("Execute non-existent script", func(t *testing.T) {
		assert.NoError(t, executor.Execute(ctx, hooks.PostPackage, hc))
	})

	t.Run("HasHook check", func(t *testing.T) {
		hookType := hooks.HookType("test-hooks")
		assert.False(t, executor.HasHook(hookType), "Should not have script before adding")

		require.NoError(t, executor.AddHook(hooks.Hook{Type: hookType, Content: "// test script"}))
		assert.True(t, executor.HasHook(hookType), "Should have script after adding")

		require.NoError(t, executor.RemoveHook(hookType))
		assert.False(t, executor.HasHook(hookType), "Should not have script after removal")

		assert.ErrorIs(t, executor.AddHook(hooks.Hook{}), hooks.ErrHookTypeEmpty)
	})

	t.Run("Context variables are accessible", func(t *testing.T) {
		executor.AddScript(hooks.PostPackage, `
			err := ""
			if pkgbase != "hello" || srcdir != "/build/hello/src" || pkgdir != "/build/hello/pkg" || startdir != "/build/hello" || customVar != "customValue" {
				err = "missing variables"
			}
		`)
		assert.NoError(t, executor.Execute(ctx, hooks.PostPackage, hc))
	})

	t.Run("Cancelled context stops the script", func(t *testing.T) {
		executor.AddScript(hooks.PreDownload, `for {}`)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		assert.Error(t, executor.Execute(cctx, hooks.PreDownload, hc))
	})
}

func TestLoadHooksFromRecipeDir(t *testing.T) {
	t.Run("loads known hooks", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, hooks.HookDir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, hooks.HookDir, "post-extract.tengo"), []byte("a := 1"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, hooks.HookDir, "README"), []byte("notes"), 0o644))

		executor := hooks.NewTengoExecutor()
		require.NoError(t, hooks.LoadHooksFromRecipeDir(executor, dir))
		assert.True(t, executor.HasHook(hooks.PostExtract))
		assert.False(t, executor.HasHook(hooks.PreDownload))
	})

	t.Run("rejects unknown hook names", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, hooks.HookDir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, hooks.HookDir, "pre-install.tengo"), []byte(""), 0o644))

		err := hooks.LoadHooksFromRecipeDir(hooks.NewTengoExecutor(), dir)
		require.ErrorIs(t, err, hooks.ErrHookExecution)
	})

	t.Run("missing directory", func(t *testing.T) {
		assert.NoError(t, hooks.LoadHooksFromRecipeDir(hooks.NewTengoExecutor(), t.TempDir()))
	})
}

func TestHookTemplate(t *testing.T) {
	for _, hookType := range hooks.Types() {
		assert.Contains(t, hooks.HookTemplate(hookType), "pkgbase")
	}
	assert.Contains(t, hooks.HookTemplate("bogus"), "Unknown hooks type")
}
