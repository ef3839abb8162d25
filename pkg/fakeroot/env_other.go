//go:build !darwin

package fakeroot

// LibraryName is the preload library injected into privileged commands.
const LibraryName = "libfakeroot.so"

func loaderEnv(libDirs, library string) []string {
	return []string{
		"LD_LIBRARY_PATH=" + libDirs,
		"LD_PRELOAD=" + library,
	}
}
