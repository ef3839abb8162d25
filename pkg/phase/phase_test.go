package phase

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
)

const script = `
pkgname=(hello hello-docs)

pkgver() {
	echo 1.2.3
}

prepare() {
	echo "${CHOST-unset}"
}

build() {
	pwd
	echo "$CHOST"
}

check() {
	false
	echo unreachable
}

verify() {
	pwd
}

package_hello() {
	printf '%s' "$pkgname" > "$pkgdir/name"
}

package_hello-docs() {
	printf '%s' "$pkgname" > "$pkgdir/name"
}
`

type fixture struct {
	cfg  *config.Config
	rec  *observer.Recorder
	run  *Runner
	r    *recipe.Recipe
	dirs *config.PkgbuildDirs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if _, err := exec.LookPath(Shell); err != nil {
		t.Skip("bash not available")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, recipe.DefaultScript), []byte(script), 0o644))

	cfg := config.DefaultConfig()
	cfg.Build.Arch = "x86_64"
	cfg.Build.Chost = "test-chost"
	cfg.Settings.LogDest = "logs"

	r := &recipe.Recipe{
		Pkgbase:   "hello",
		Pkgver:    "1.0",
		Pkgrel:    "1",
		Packages:  []string{"hello", "hello-docs"},
		Functions: []string{"pkgver", "prepare", "build", "check", "verify", "package_hello", "package_hello-docs"},
		Script:    recipe.DefaultScript,
		Dir:       dir,
	}
	dirs := cfg.Dirs(r)
	require.NoError(t, os.MkdirAll(dirs.SrcDir, 0o755))

	rec := &observer.Recorder{Policy: observer.Policy(observer.Null)}
	return &fixture{cfg: cfg, rec: rec, run: New(cfg, runner.New(rec), nil), r: r, dirs: dirs}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}

func (f *fixture) capture(t *testing.T, function string) string {
	t.Helper()
	out, err := f.run.RunPhase(testContext(t), Request{Recipe: f.r, Dirs: f.dirs, Function: function, Capture: true})
	require.NoError(t, err)
	return out
}

func TestPkgver(t *testing.T) {
	f := newFixture(t)
	out, err := f.run.Run(testContext(t), f.r, f.dirs, "pkgver", false)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", out)
	assert.Equal(t, []observer.Event{{Kind: observer.RunningFunction, Name: "pkgver"}}, f.rec.Events())
}

func TestWorkingDirectory(t *testing.T) {
	f := newFixture(t)

	srcDir, err := filepath.EvalSymlinks(f.dirs.SrcDir)
	require.NoError(t, err)
	startDir, err := filepath.EvalSymlinks(f.dirs.StartDir)
	require.NoError(t, err)

	assert.Equal(t, srcDir+"\ntest-chost\n", f.capture(t, "build"))
	assert.Equal(t, startDir+"\n", f.capture(t, "verify"))
}

func TestBuildEnvOnlyForBuildPhases(t *testing.T) {
	if _, ok := os.LookupEnv("CHOST"); ok {
		t.Skip("CHOST set in the test environment")
	}
	f := newFixture(t)
	assert.Equal(t, "unset\n", f.capture(t, "prepare"))
}

func TestFailingFunction(t *testing.T) {
	f := newFixture(t)
	out, err := f.run.RunPhase(testContext(t), Request{Recipe: f.r, Dirs: f.dirs, Function: "check", Capture: true})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, pkgerrors.ErrCommandFailed)

	var cmdErr *pkgerrors.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestUnknownFunction(t *testing.T) {
	f := newFixture(t)
	_, err := f.run.RunPhase(testContext(t), Request{Recipe: f.r, Dirs: f.dirs, Function: "nope"})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownFunction)

	out, err := f.run.Run(testContext(t), f.r, f.dirs, "nope", false)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunPackage(t *testing.T) {
	f := newFixture(t)
	_, err := f.run.Run(testContext(t), f.r, f.dirs, "package", false)
	require.NoError(t, err)

	for _, name := range []string{"hello", "hello-docs"} {
		got, err := os.ReadFile(filepath.Join(f.dirs.PackageDir(name), "name"))
		require.NoError(t, err)
		assert.Equal(t, name, string(got))
	}

	var built []string
	for _, e := range f.rec.Events() {
		if e.Kind == observer.BuildingPackage {
			built = append(built, e.Name)
			assert.Equal(t, "1.0-1", e.Version)
		}
	}
	assert.Equal(t, []string{"hello", "hello-docs"}, built)
}

func TestRunPackageWithoutPackageList(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.r.Dir, recipe.DefaultScript),
		[]byte("package() {\n\tprintf '%s' \"$pkgdir\" > \"$pkgdir/name\"\n}\n"), 0o644))
	f.r.Packages = nil
	f.r.Functions = []string{"package"}

	require.NoError(t, f.run.RunPackage(testContext(t), f.r, f.dirs, false))

	got, err := os.ReadFile(filepath.Join(f.dirs.PackageDir("hello"), "name"))
	require.NoError(t, err)
	assert.Equal(t, f.dirs.PackageDir("hello"), string(got))
	assert.Equal(t, "hello", f.rec.Events()[0].Name)
}

func TestLogFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.run.RunPhase(testContext(t), Request{Recipe: f.r, Dirs: f.dirs, Function: "pkgver", Log: true})
	require.NoError(t, err)

	path := f.run.LogPath(f.r, f.dirs, "pkgver")
	assert.Equal(t, filepath.Join(f.r.Dir, "logs", "hello-1.0-1-x86_64-pkgver.log"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", string(got))

	// A second run truncates.
	_, err = f.run.RunPhase(testContext(t), Request{Recipe: f.r, Dirs: f.dirs, Function: "pkgver", Log: true})
	require.NoError(t, err)
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", string(got))
}

func TestFunctions(t *testing.T) {
	f := newFixture(t)
	fns, err := f.run.Functions(testContext(t), f.r, f.dirs)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"build", "check", "package_hello", "package_hello-docs", "pkgver", "prepare", "verify",
	}, fns)
}
