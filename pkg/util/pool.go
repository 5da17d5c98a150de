package util

import "runtime"

// GetOptimalPoolSize returns the pool size used for parallel work.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// This is used for:
//   - Parser pool size (tree-sitter parsers for the declaration checker)
//   - Concurrent doclet dump loading
func GetOptimalPoolSize() int {
	cores := runtime.NumCPU()
	poolSize := cores * 2

	// Enforce minimum
	if poolSize < 4 {
		poolSize = 4
	}

	// Enforce maximum
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (for testing/tuning).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
