package platform

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/glorpus-work/pkgsmith/pkg/errors"
)

// CurrentArch returns the architecture of the running system.
func CurrentArch() string {
	return NormalizeArch(runtime.GOARCH)
}

// NormalizeArch maps Go and vendor architecture names to recipe names.
// Unknown names are returned lowercased.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(arch)
	switch arch {
	case "amd64", "x64", "x86_64":
		return ArchX86_64
	case "386", "i386", "x86", "i686":
		return ArchI686
	case "arm64", "aarch64":
		return ArchAarch64
	case "arm", "armv7", "armv7l", "armv7h":
		return ArchArmv7h
	case "ppc64le", "powerpc64le":
		return ArchPPC64LE
	default:
		return arch
	}
}

// Supports reports whether a recipe declaring archs can be built on carch.
// An empty list or AnyArch matches everything.
func Supports(archs []string, carch string) bool {
	if len(archs) == 0 || slices.Contains(archs, AnyArch) {
		return true
	}
	return slices.Contains(archs, carch)
}

// Check returns an error naming pkgbase unless Supports(archs, carch).
func Check(pkgbase string, archs []string, carch string) error {
	if Supports(archs, carch) {
		return nil
	}
	return fmt.Errorf("%w: %s is not available for the '%s' architecture", errors.ErrUnsupportedArch, pkgbase, carch)
}
