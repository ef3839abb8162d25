package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/cache"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the source cache",
		Long: `Clean, show information about, and manage the source cache.

The cache is the configured src_dest, or the per-user source cache when
src_dest is not set.`,
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var options cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the source cache",
		Long:  "Remove cached sources to free up disk space",
		RunE: func(*cobra.Command, []string) error {
			return runCacheClean(options)
		},
	}

	cmd.Flags().BoolVar(&options.All, "all", false, "Clean all cached sources")
	cmd.Flags().BoolVar(&options.Partial, "partial", false, "Clean only interrupted downloads")
	cmd.Flags().BoolVar(&options.Downloads, "downloads", false, "Clean only completed downloads")
	cmd.Flags().BoolVar(&options.Clones, "clones", false, "Clean only VCS clones")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display information about the source cache",
		RunE:  runCacheInfo,
	}

	return cmd
}

func newCacheDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the source cache directory",
		RunE:  runCacheDir,
	}

	return cmd
}

func loadCacheManager() (*cache.DefaultManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := getCacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewManager(dir), nil
}

func runCacheClean(options cache.CleanOptions) error {
	cacheManager, err := loadCacheManager()
	if err != nil {
		return err
	}

	result, err := cacheManager.Clean(options)
	if err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}

	if result.PartialFreed > 0 {
		logger.Info("Cleaned interrupted downloads", logger.Fields{"size": humanize.Bytes(uint64(result.PartialFreed))})
	}
	if result.DownloadsFreed > 0 {
		logger.Info("Cleaned downloaded files", logger.Fields{"size": humanize.Bytes(uint64(result.DownloadsFreed))})
	}
	if result.ClonesFreed > 0 {
		logger.Info("Cleaned VCS clones", logger.Fields{"size": humanize.Bytes(uint64(result.ClonesFreed))})
	}

	logger.Success("Cache cleaning completed", logger.Fields{
		"removed":     len(result.Removed),
		"total_freed": humanize.Bytes(uint64(result.TotalFreed)),
	})
	return nil
}

func runCacheInfo(*cobra.Command, []string) error {
	cacheManager, err := loadCacheManager()
	if err != nil {
		return err
	}

	info, err := cacheManager.GetInfo()
	if err != nil {
		return err
	}

	fmt.Printf("Cache Directory: %s\n", info.Directory)
	fmt.Printf("Total Size: %s\n", humanize.Bytes(uint64(info.TotalSize)))
	fmt.Printf("Downloads: %s (%d files)\n", humanize.Bytes(uint64(info.DownloadSize)), info.DownloadFiles)
	fmt.Printf("Partial: %s (%d files)\n", humanize.Bytes(uint64(info.PartialSize)), info.PartialFiles)
	fmt.Printf("VCS Clones: %s (%d repositories)\n", humanize.Bytes(uint64(info.CloneSize)), info.Clones)

	return nil
}

func runCacheDir(*cobra.Command, []string) error {
	cacheManager, err := loadCacheManager()
	if err != nil {
		return err
	}

	fmt.Println(cacheManager.GetDirectory())
	return nil
}

// getCacheDir returns the configured src_dest, falling back to the per-user
// source cache. A relative src_dest is taken relative to the working
// directory.
func getCacheDir(cfg *config.Config) (string, error) {
	if cfg.Settings.SrcDest != "" {
		return filepath.Abs(cfg.Settings.SrcDest)
	}
	return fsutil.GetSourceCacheDir()
}
