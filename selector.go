package storekit

import (
	"io/fs"
	"strings"

	"github.com/gobwas/glob"
)

// Selector filters the local files visited by UploadDir.
//
// rel is the slash-separated path of the entry relative to the walked root.
type Selector interface {
	// Match returns true if the file should be transferred.
	Match(rel string, info fs.FileInfo) bool

	// TraverseDescendants returns true if the directory should be walked.
	// Only called for directories.
	TraverseDescendants(rel string, info fs.FileInfo) bool
}

type allSelector struct{}

func (allSelector) Match(string, fs.FileInfo) bool               { return true }
func (allSelector) TraverseDescendants(string, fs.FileInfo) bool { return true }

// All returns a selector that matches every file and walks every directory.
func All() Selector {
	return allSelector{}
}

type globSelector struct {
	g        glob.Glob
	fullPath bool
}

// Glob creates a selector from a glob pattern.
//
// Patterns containing "/" are matched against the relative path and "**"
// crosses directory boundaries; other patterns are matched against the base
// name only.
//
//	Glob("*.csv")           // any .csv file at any depth
//	Glob("raw/**/*.json")   // .json files anywhere below raw/
//	Glob("{train,test}/*")  // direct children of train/ or test/
func Glob(pattern string) (Selector, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}
	return &globSelector{g: g, fullPath: strings.Contains(pattern, "/")}, nil
}

// MustGlob is like Glob but panics on a malformed pattern.
func MustGlob(pattern string) Selector {
	s, err := Glob(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *globSelector) Match(rel string, info fs.FileInfo) bool {
	if s.fullPath {
		return s.g.Match(rel)
	}
	return s.g.Match(info.Name())
}

func (s *globSelector) TraverseDescendants(string, fs.FileInfo) bool {
	return true
}

type depthSelector struct {
	maxDepth int
}

// Depth limits the walk to maxDepth levels; 1 selects only the root's files.
func Depth(maxDepth int) Selector {
	return &depthSelector{maxDepth: maxDepth}
}

func depthOf(rel string) int {
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func (s *depthSelector) Match(rel string, _ fs.FileInfo) bool {
	return depthOf(rel) <= s.maxDepth
}

func (s *depthSelector) TraverseDescendants(rel string, _ fs.FileInfo) bool {
	return depthOf(rel) < s.maxDepth
}

type andSelector []Selector

// And matches only if all selectors match.
func And(selectors ...Selector) Selector {
	return andSelector(selectors)
}

func (s andSelector) Match(rel string, info fs.FileInfo) bool {
	for _, sel := range s {
		if !sel.Match(rel, info) {
			return false
		}
	}
	return true
}

func (s andSelector) TraverseDescendants(rel string, info fs.FileInfo) bool {
	for _, sel := range s {
		if !sel.TraverseDescendants(rel, info) {
			return false
		}
	}
	return true
}

type orSelector []Selector

// Or matches if any selector matches.
func Or(selectors ...Selector) Selector {
	return orSelector(selectors)
}

func (s orSelector) Match(rel string, info fs.FileInfo) bool {
	for _, sel := range s {
		if sel.Match(rel, info) {
			return true
		}
	}
	return false
}

func (s orSelector) TraverseDescendants(rel string, info fs.FileInfo) bool {
	for _, sel := range s {
		if sel.TraverseDescendants(rel, info) {
			return true
		}
	}
	return false
}

type notSelector struct {
	s Selector
}

// Not inverts a selector's match result. Traversal is unaffected.
func Not(s Selector) Selector {
	return notSelector{s: s}
}

func (n notSelector) Match(rel string, info fs.FileInfo) bool {
	return !n.s.Match(rel, info)
}

func (notSelector) TraverseDescendants(string, fs.FileInfo) bool {
	return true
}

type funcSelector func(rel string, info fs.FileInfo) bool

// FuncSelector creates a selector from a match function.
func FuncSelector(fn func(rel string, info fs.FileInfo) bool) Selector {
	return funcSelector(fn)
}

func (f funcSelector) Match(rel string, info fs.FileInfo) bool { return f(rel, info) }
func (funcSelector) TraverseDescendants(string, fs.FileInfo) bool  { return true }
