package cache

// Manager defines the interface for source cache operations.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to remove from the cache. With no field set
// everything is removed.
type CleanOptions struct {
	All bool
	// Partial removes interrupted downloads.
	Partial bool
	// Downloads removes completed file downloads.
	Downloads bool
	// Clones removes VCS clones.
	Clones bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed     int64
	PartialFreed   int64
	DownloadsFreed int64
	ClonesFreed    int64
	Removed        []string
}

// Info describes the contents of a source cache.
type Info struct {
	Directory     string
	TotalSize     int64
	DownloadSize  int64
	DownloadFiles int
	PartialSize   int64
	PartialFiles  int
	CloneSize     int64
	Clones        int
}
