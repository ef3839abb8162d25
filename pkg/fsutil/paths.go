// Package fsutil provides file system helpers shared by the build core.
package fsutil

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the user's config and cache dirs.
const AppName = "pkgsmith"

// GetConfigDir returns the per-user configuration directory.
// On Linux: ~/.config/pkgsmith/
// On macOS: ~/Library/Application Support/pkgsmith/
func GetConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetSourceCacheDir returns the shared download cache used when no source
// destination is configured.
// On Linux: ~/.cache/pkgsmith/sources/
func GetSourceCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "sources"), nil
}

// EnsureDir creates path and its parents with DirModeDefault.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// Exists reports whether path exists. Dangling symlinks count as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
