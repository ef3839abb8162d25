package cache

import "github.com/glorpus-work/pkgsmith/pkg/fsutil"

// CacheDirPerm is the permission mode used when recreating the cache directory.
const CacheDirPerm = fsutil.DirModeDefault
