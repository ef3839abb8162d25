// Package buildenv computes the compiler environment for build, check and
// package functions.
package buildenv

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
)

// Env is a set of variables, seeded lazily from the process environment
// where a value is extended rather than replaced.
type Env map[string]string

func (e Env) inherit(key string) string {
	if v, ok := e[key]; ok {
		return v
	}
	v := os.Getenv(key)
	e[key] = v
	return v
}

func (e Env) appendTo(key, value string) {
	e[key] = e[key] + value
}

// List returns KEY=VALUE pairs in key order.
func (e Env) List() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + e[k]
	}
	return out
}

// Generate returns the environment for building r as KEY=VALUE pairs.
func Generate(cfg *config.Config, dirs *config.PkgbuildDirs, r *recipe.Recipe) []string {
	env := Env{}
	compiler(env, cfg, dirs, r)
	buildFlags(env, cfg, r)
	debugFlags(env, cfg, dirs, r)
	if cfg.Build.SourceDateEpoch > 0 {
		env["SOURCE_DATE_EPOCH"] = strconv.FormatInt(cfg.Build.SourceDateEpoch, 10)
	}
	return env.List()
}

func option(cfg *config.Config, r *recipe.Recipe, name string) recipe.OptionState {
	return recipe.Resolve(r.Options, cfg.Build.Options, name)
}

func buildOption(cfg *config.Config, r *recipe.Recipe, name string) recipe.OptionState {
	return recipe.Resolve(r.Options, cfg.Build.BuildEnv, name)
}

func prependPath(env Env, dir string) {
	if path := env.inherit("PATH"); path != "" {
		dir += ":" + path
	}
	env["PATH"] = dir
}

// compiler puts the ccache and distcc wrappers in front of PATH when they
// are enabled and installed.
func compiler(env Env, cfg *config.Config, dirs *config.PkgbuildDirs, r *recipe.Recipe) {
	ccache := filepath.Join(cfg.Build.LibDir, "ccache", "bin")
	usingCcache := false
	if buildOption(cfg, r, "ccache").Enabled() && fsutil.Exists(ccache) {
		prependPath(env, ccache)
		usingCcache = true
	}

	if !buildOption(cfg, r, "distcc").Enabled() {
		return
	}
	if usingCcache {
		if prefix := env.inherit("CCACHE_PREFIX"); !strings.Contains(prefix, "distcc") {
			env.appendTo("CCACHE_PREFIX", " distcc")
		}
		env["CCACHE_BASEDIR"] = dirs.SrcDir
	} else if distcc := filepath.Join(cfg.Build.LibDir, "distcc", "bin"); fsutil.Exists(distcc) {
		prependPath(env, distcc)
	}
	env["DISTCC_HOSTS"] = cfg.Build.DistccHosts
}

func buildFlags(env Env, cfg *config.Config, r *recipe.Recipe) {
	if option(cfg, r, "buildflags").Disabled() {
		return
	}
	b := cfg.Build
	env["CFLAGS"] = b.CFlags
	env["CPPFLAGS"] = b.CPPFlags
	env["CXXFLAGS"] = b.CXXFlags
	env["LDFLAGS"] = b.LDFlags
	env["RUSTFLAGS"] = b.RustFlags
	env["CHOST"] = b.Chost

	if option(cfg, r, "lto").Enabled() {
		for _, k := range []string{"CFLAGS", "CXXFLAGS", "LDFLAGS"} {
			env.appendTo(k, " "+b.LTOFlags)
		}
	}

	if !option(cfg, r, "makeflags").Disabled() {
		env["MAKEFLAGS"] = b.MakeFlags
	}
}

// debugFlags maps the source directory to its installed debug source
// location so debug info does not point into the build tree.
func debugFlags(env Env, cfg *config.Config, dirs *config.PkgbuildDirs, r *recipe.Recipe) {
	if !option(cfg, r, "debug").Enabled() || option(cfg, r, "buildflags").Disabled() {
		return
	}
	target := cfg.Build.DbgSrcDir + "/" + r.Pkgbase
	remap := " -ffile-prefix-map=" + dirs.SrcDir + "=" + target
	rustRemap := " --remap-path-prefix=" + dirs.SrcDir + "=" + target

	b := cfg.Build
	for _, f := range []struct{ debug, flags, base, remap string }{
		{"DEBUG_CFLAGS", "CFLAGS", b.DebugCFlags, remap},
		{"DEBUG_CXXFLAGS", "CXXFLAGS", b.DebugCXXFlags, remap},
		{"DEBUG_RUSTFLAGS", "RUSTFLAGS", b.DebugRustFlags, rustRemap},
	} {
		env[f.debug] = f.base + f.remap
		env.appendTo(f.flags, " "+env[f.debug])
	}
}
