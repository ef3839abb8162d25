package cache

import "fmt"

// Common cache errors.
var (
	// ErrCacheDirectory is returned when there's an error with the cache directory.
	ErrCacheDirectory = fmt.Errorf("invalid cache directory")
)
