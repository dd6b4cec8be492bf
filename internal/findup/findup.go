// Package findup locates project marker files by walking up the
// directory tree.
package findup

import (
	"os"
	"path/filepath"
)

// maxDepth bounds the upward walk so a stray marker far outside the
// project cannot be picked up.
const maxDepth = 16

// Find walks upward from start, at most maxDepth levels or until the
// filesystem root, and returns the first directory containing any of
// names. Names are checked in the given order within each directory, so
// a nearer directory always wins over a farther one.
func Find(start string, names ...string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for depth := 0; depth < maxDepth; depth++ {
		for _, name := range names {
			info, err := os.Stat(filepath.Join(dir, name))
			if err == nil && !info.IsDir() {
				return dir, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
