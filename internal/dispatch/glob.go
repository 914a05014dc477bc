package dispatch

import (
	"strconv"

	"github.com/gobwas/glob"
)

// globMatcher is the minimal surface handlers_key.go needs from a compiled
// glob pattern, letting KEYS/SCAN's MATCH option share one compiled-glob
// path without importing gobwas/glob directly everywhere.
type globMatcher interface {
	Match(s string) bool
}

// compileGlob compiles pattern for KEYS/SCAN MATCH filtering. An invalid
// pattern degrades to literal-equality matching rather than erroring, since
// neither command's reply has a slot for a parse error.
func compileGlob(pattern string) globMatcher {
	g, err := glob.Compile(pattern)
	if err != nil {
		return literalMatcher(pattern)
	}
	return g
}

type literalMatcher string

func (l literalMatcher) Match(s string) bool { return string(l) == s }

func itoa(n int) string { return strconv.Itoa(n) }
