package dupsig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Walker enumerates regular files under a root directory. Each Walk call
// re-walks current disk state, so the walker is restartable. Traversal is
// pre-order depth-first over an explicit stack: deep trees cannot overflow
// the call stack.
//
// Hidden entries (leading dot) are neither yielded nor descended into.
// Directory symlinks discovered during traversal are yielded as leaf
// entries, never followed, so symlink cycles cannot occur. The root is the
// one exception: a root given as a symlink is followed, since the caller
// named it explicitly. Entries that fail to read are skipped silently and
// the walk continues with their siblings.
type Walker struct {
	root string
}

// NewWalker creates a walker rooted at the given directory. The root is
// resolved to an absolute path so yielded paths are absolute.
func NewWalker(root string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %s: %w", root, err)
	}
	return &Walker{root: filepath.Clean(absRoot)}, nil
}

// Root returns the absolute root directory of the walker.
func (w *Walker) Root() string {
	return w.root
}

// Walk streams every visible file under the root to resultChan, closing the
// channel when traversal finishes. It stops early when shutdownChan closes.
func (w *Walker) Walk(resultChan chan<- string, shutdownChan <-chan struct{}) error {
	defer VerboseEnter()()
	defer close(resultChan)

	// Explicit stack; children are pushed in reverse-sorted order so the
	// lexicographically smallest entry is processed next (pre-order DFS).
	stack := []string{w.root}

	for len(stack) > 0 {
		select {
		case <-shutdownChan:
			if IsDebugEnabled("walk") {
				VerboseLog(2, "walk: interrupted by shutdown")
			}
			return ErrInterrupted
		default:
		}

		currentPath := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Lstat(currentPath)
		if err != nil {
			continue // Skip inaccessible paths
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if currentPath != w.root {
				// Symlinks below the root are leaf entries regardless of
				// target type; a directory symlink is never traversed.
				resultChan <- currentPath
				continue
			}
			// The root itself is followed: the caller named this path
			// explicitly, so a symlinked root scans the tree it points at.
			info, err = os.Stat(currentPath)
			if err != nil {
				continue
			}
		}

		if info.IsDir() {
			entries, err := os.ReadDir(currentPath)
			if err != nil {
				continue // Permission denied: skip, keep walking siblings
			}

			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Name() < entries[j].Name()
			})

			for i := len(entries) - 1; i >= 0; i-- {
				name := entries[i].Name()
				if strings.HasPrefix(name, hiddenPrefix) {
					continue
				}
				stack = append(stack, filepath.Join(currentPath, name))
			}
			continue
		}

		if info.Mode().IsRegular() {
			if IsDebugEnabled("walk") {
				VerboseLog(3, "walk: found file %s", currentPath)
			}
			resultChan <- currentPath
		}
	}

	return nil
}

// Collect runs a full walk and gathers the results into a slice.
func (w *Walker) Collect(shutdownChan <-chan struct{}) ([]string, error) {
	resultChan := make(chan string, 256)
	errChan := make(chan error, 1)

	go func() {
		errChan <- w.Walk(resultChan, shutdownChan)
	}()

	var paths []string
	for path := range resultChan {
		paths = append(paths, path)
	}

	if err := <-errChan; err != nil {
		return nil, err
	}
	return paths, nil
}

// Count walks the tree once and returns the number of files found. Used for
// progress reporting; the scanning pass re-walks afterwards.
func (w *Walker) Count(shutdownChan <-chan struct{}) (int, error) {
	paths, err := w.Collect(shutdownChan)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

// HasSuffixExtension reports whether the path's suffix names the given
// normalized extension. Extension filtering happens at the consumer, not in
// the walker.
func HasSuffixExtension(path, ext string) bool {
	suffix := NormalizeExtension(filepath.Ext(path))
	return suffix != "" && suffix == ext
}
