package platform

import "slices"

// ValidArch returns the architectures NormalizeArch produces.
func ValidArch() []string {
	return []string{
		ArchX86_64,
		ArchI686,
		ArchAarch64,
		ArchArmv7h,
		ArchRiscv64,
		ArchPPC64LE,
	}
}

// IsKnownArch reports whether arch is one of ValidArch or AnyArch.
func IsKnownArch(arch string) bool {
	return arch == AnyArch || slices.Contains(ValidArch(), arch)
}
