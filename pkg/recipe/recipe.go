// Package recipe holds the parsed form of a build recipe that the core
// operates on.
//
// The recipe language itself is not interpreted here. A recipe manifest is a
// small YAML document naming the package, its sources and the functions the
// accompanying script declares; phases are executed by sourcing that script.
package recipe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/source"
)

// ManifestName is the manifest file looked up in a recipe directory.
const ManifestName = "pkgsmith.yaml"

// DefaultScript is the shell script sourced when running phases.
const DefaultScript = "PKGBUILD"

// Recipe is one build description.
type Recipe struct {
	Pkgbase   string          `yaml:"pkgbase"`
	Pkgver    string          `yaml:"pkgver"`
	Pkgrel    string          `yaml:"pkgrel"`
	Epoch     string          `yaml:"epoch,omitempty"`
	Arch      []string        `yaml:"arch,omitempty"`
	Sources   []source.Source `yaml:"source,omitempty"`
	NoExtract []string        `yaml:"noextract,omitempty"`
	Options   Options         `yaml:"options,omitempty"`
	// Packages lists the package names built from this recipe. It defaults
	// to Pkgbase.
	Packages []string `yaml:"packages,omitempty"`
	// Functions lists the functions the script defines.
	Functions []string `yaml:"functions,omitempty"`
	Script    string   `yaml:"script,omitempty"`

	// Dir is the directory the manifest was loaded from.
	Dir string `yaml:"-"`
}

// Load reads a manifest. path may name the manifest itself or the directory
// holding it.
func Load(path string) (*Recipe, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "resolving %s", path)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		abs = filepath.Join(abs, ManifestName)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open recipe %s", abs)
	}
	defer func() { _ = f.Close() }()

	r, err := Parse(f)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "recipe %s", abs)
	}
	r.Dir = filepath.Dir(abs)
	return r, nil
}

// Parse decodes a manifest and fills defaults. The returned Recipe has no
// Dir.
func Parse(r io.Reader) (*Recipe, error) {
	var rec Recipe
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec.Pkgbase == "" && len(rec.Packages) > 0 {
		rec.Pkgbase = rec.Packages[0]
	}
	if len(rec.Packages) == 0 {
		rec.Packages = []string{rec.Pkgbase}
	}
	if rec.Script == "" {
		rec.Script = DefaultScript
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Validate checks the fields every operation relies on.
func (r *Recipe) Validate() error {
	switch {
	case r.Pkgbase == "":
		return fmt.Errorf("pkgbase is required")
	case r.Pkgver == "":
		return fmt.Errorf("pkgver is required")
	case r.Pkgrel == "":
		return fmt.Errorf("pkgrel is required")
	case strings.ContainsAny(r.Pkgver, ":-/ "):
		return fmt.Errorf("invalid pkgver %q", r.Pkgver)
	}
	return nil
}

// Version returns [epoch:]pkgver-pkgrel.
func (r *Recipe) Version() string {
	v := r.Pkgver + "-" + r.Pkgrel
	if r.Epoch != "" && r.Epoch != "0" {
		v = r.Epoch + ":" + v
	}
	return v
}

// HasFunction reports whether the script defines name. A package phase
// counts as present when either package or any package_<name> is declared.
func (r *Recipe) HasFunction(name string) bool {
	if name == "package" {
		return len(r.PackageFunctions()) > 0
	}
	return slices.Contains(r.Functions, name)
}

// PackageFunctions returns the declared packaging functions in declaration
// order.
func (r *Recipe) PackageFunctions() []string {
	var fns []string
	for _, f := range r.Functions {
		if f == "package" || strings.HasPrefix(f, "package_") {
			fns = append(fns, f)
		}
	}
	return fns
}

// NoExtracts reports whether the named file must not be unpacked.
func (r *Recipe) NoExtracts(file string) bool {
	return slices.Contains(r.NoExtract, file)
}
