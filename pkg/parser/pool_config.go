package parser

import (
	"github.com/gnana997/tsdgen/pkg/util"
)

// getPoolSize returns the pool size to use. An override of 0 sizes the
// pool from the CPU count, the same way the doclet loader sizes its
// worker group, so concurrent checks never wait on a parser.
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
