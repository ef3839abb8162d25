package platform

// Package platform provides constants and utilities for handling build
// architectures, named the way recipes name them.

const (
	// ArchX86_64 is the 64-bit x86 architecture.
	ArchX86_64 = "x86_64"
	// ArchI686 is the 32-bit x86 architecture.
	ArchI686 = "i686"
	// ArchAarch64 is the 64-bit ARM architecture.
	ArchAarch64 = "aarch64"
	// ArchArmv7h is the 32-bit hard-float ARM architecture.
	ArchArmv7h = "armv7h"
	// ArchRiscv64 is the 64-bit RISC-V architecture.
	ArchRiscv64 = "riscv64"
	// ArchPPC64LE is the little-endian 64-bit POWER architecture.
	ArchPPC64LE = "powerpc64le"
	// AnyArch marks architecture independent recipes.
	AnyArch = "any"
)
