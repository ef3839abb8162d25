// Package archive identifies and unpacks downloaded source files.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
)

// Manager handles archive identification and extraction.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Kind is what Identify found.
type Kind int

const (
	// NotArchive is any file that is neither archived nor compressed.
	NotArchive Kind = iota
	// Archive holds several entries, possibly compressed (tar.gz, zip, 7z).
	Archive
	// Compressed is a single compressed file (foo.gz, foo.xz).
	Compressed
)

// Identify sniffs path by name and content.
func (am *Manager) Identify(ctx context.Context, path string) (Kind, archives.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return NotArchive, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, filepath.Base(path), f)
	if errors.Is(err, archives.NoMatch) {
		return NotArchive, nil, nil
	}
	if err != nil {
		return NotArchive, nil, fmt.Errorf("failed to identify %s: %w", path, err)
	}
	if _, ok := format.(archives.Extractor); ok {
		return Archive, format, nil
	}
	if _, ok := format.(archives.Decompressor); ok {
		return Compressed, format, nil
	}
	return NotArchive, nil, nil
}

// IsArchive reports whether path is something Extract would unpack.
func (am *Manager) IsArchive(ctx context.Context, path string) (bool, error) {
	kind, _, err := am.Identify(ctx, path)
	return kind != NotArchive, err
}

// Extract unpacks path into destDir. Archives are expanded in place;
// a single compressed file is written to destDir without its compression
// extension. Other files are left alone.
func (am *Manager) Extract(ctx context.Context, path, destDir string) error {
	kind, format, err := am.Identify(ctx, path)
	if err != nil {
		return err
	}
	switch kind {
	case Archive:
		return am.ExtractAll(ctx, path, destDir)
	case Compressed:
		return am.decompress(path, destDir, format)
	default:
		return nil
	}
}

// ExtractAll extracts all files from an archive to the specified destination directory
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := os.MkdirAll(destDir, fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return am.extractEntry(fsys, path, destDir, d)
	})
}

func (am *Manager) decompress(path, destDir string, format archives.Format) error {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, format.Extension())
	if name == base || name == "" {
		return fmt.Errorf("cannot derive output name for %s", path)
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = in.Close() }()

	rc, err := format.(archives.Decompressor).OpenReader(in)
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	defer func() { _ = rc.Close() }()

	target := filepath.Join(destDir, name)
	_ = os.Remove(target)
	out, err := fsutil.CreateFilePerm(target, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", target, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return out.Close()
}

// extractEntry processes a single archive entry and writes it to destDir.
func (am *Manager) extractEntry(fsys fs.FS, path, destDir string, d fs.DirEntry) error {
	if path == "." {
		return nil
	}

	targetPath := filepath.Join(destDir, path)
	if !strings.HasPrefix(targetPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry %s escapes %s", path, destDir)
	}

	if d.IsDir() {
		return os.MkdirAll(targetPath, fsutil.DirModeDefault)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(fsys, path, targetPath)
	}
	return am.writeRegularFile(fsys, path, targetPath, info)
}

// writeSymlink creates a symlink at targetPath with contents from the archive entry at path.
func (am *Manager) writeSymlink(fsys fs.FS, path, targetPath string) error {
	link, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", path, err)
	}
	defer func() { _ = link.Close() }()

	target, err := io.ReadAll(link)
	if err != nil {
		return fmt.Errorf("failed to read symlink target %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", path, err)
	}
	return fsutil.ReplaceSymlink(string(target), targetPath)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves metadata.
func (am *Manager) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	// A previous extraction may have left a read-only file behind.
	_ = os.Remove(targetPath)
	dstFile, err := fsutil.CreateFilePerm(targetPath, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file %s: %w", path, err)
	}

	if err := os.Chmod(targetPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
