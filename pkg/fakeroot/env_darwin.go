package fakeroot

// LibraryName is the preload library injected into privileged commands.
const LibraryName = "libfakeroot.dylib"

func loaderEnv(libDirs, library string) []string {
	return []string{
		"DYLD_FALLBACK_LIBRARY_PATH=" + libDirs,
		"DYLD_INSERT_LIBRARIES=" + library,
	}
}
