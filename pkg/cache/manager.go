// Package cache inspects and prunes a source cache directory: the place
// downloads, in-flight ".part" files and VCS clones are kept between builds.
package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
)

type entryKind int

const (
	kindDownload entryKind = iota
	kindPartial
	kindClone
)

// DefaultManager implements Manager over one directory.
type DefaultManager struct {
	directory string
}

var _ Manager = (*DefaultManager)(nil)

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// NewDefaultManager creates a cache manager for the per-user source cache,
// creating it if needed.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetSourceCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}

	if err := os.MkdirAll(cacheDir, CacheDirPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory")
	}

	return NewManager(cacheDir), nil
}

// Clean removes cached entries according to the specified options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if !options.Partial && !options.Downloads && !options.Clones {
		options.All = true
	}
	want := map[entryKind]bool{
		kindPartial:  options.All || options.Partial,
		kindDownload: options.All || options.Downloads,
		kindClone:    options.All || options.Clones,
	}

	result := &CleanResult{}
	err := cm.walk(func(path string, kind entryKind, size int64) error {
		if !want[kind] {
			return nil
		}
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, "failed to remove %s", path)
		}
		logger.Debug("Removed cache entry", logger.Fields{"path": path, "size": size})
		result.Removed = append(result.Removed, filepath.Base(path))
		switch kind {
		case kindPartial:
			result.PartialFreed += size
		case kindDownload:
			result.DownloadsFreed += size
		case kindClone:
			result.ClonesFreed += size
		}
		result.TotalFreed += size
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}
	err := cm.walk(func(_ string, kind entryKind, size int64) error {
		switch kind {
		case kindPartial:
			info.PartialSize += size
			info.PartialFiles++
		case kindDownload:
			info.DownloadSize += size
			info.DownloadFiles++
		case kindClone:
			info.CloneSize += size
			info.Clones++
		}
		info.TotalSize += size
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get cache info")
	}
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

// walk visits each top-level entry of the cache directory. A missing
// directory is an empty cache.
func (cm *DefaultManager) walk(fn func(path string, kind entryKind, size int64) error) error {
	entries, err := os.ReadDir(cm.directory)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read cache directory %s", cm.directory)
	}

	for _, entry := range entries {
		path := filepath.Join(cm.directory, entry.Name())
		kind := kindDownload
		switch {
		case entry.IsDir():
			kind = kindClone
		case strings.HasSuffix(entry.Name(), fsutil.PartSuffix):
			kind = kindPartial
		}
		size, err := dirSize(path)
		if err != nil {
			return err
		}
		if err := fn(path, kind, size); err != nil {
			return err
		}
	}
	return nil
}

// dirSize returns the total size of the regular files under path.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "error walking %s", path)
	}
	return size, nil
}
