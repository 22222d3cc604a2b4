package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Exists reports whether anything, including a dangling symlink, is present at
// path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ResolveCollision picks the path a link should be created at. With skip set
// the candidate is returned unchanged and the caller decides what to do with
// an existing entry. Otherwise the first free name out of candidate,
// "<stem>_2<ext>", "<stem>_3<ext>", ... inside parentDir is returned.
func ResolveCollision(candidate, parentDir string, skip bool, baseName string) string {
	if skip {
		return candidate
	}

	ext := filepath.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)

	path := candidate
	for n := 2; Exists(path); n++ {
		path = filepath.Join(parentDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	return path
}

// CreateRelativeLink creates a symlink at linkPath pointing to targetPath,
// expressed relative to the link's directory so the tree survives being moved
// as a whole. Missing parent directories are created. With skip set an
// existing entry at linkPath is left alone and false is returned.
func CreateRelativeLink(linkPath, targetPath string, skip bool) (bool, error) {
	if skip && Exists(linkPath) {
		return false, nil
	}

	parent := filepath.Dir(linkPath)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return false, errors.WithStack(err)
	}

	absParent, err := physicalPath(parent)
	if err != nil {
		return false, errors.WithStack(err)
	}
	absTarget, err := physicalPath(targetPath)
	if err != nil {
		return false, errors.WithStack(err)
	}
	relTarget, err := filepath.Rel(absParent, absTarget)
	if err != nil {
		return false, errors.WithStack(err)
	}

	if err := os.Symlink(relTarget, linkPath); err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

// physicalPath returns the absolute path with symlinks resolved when possible.
// Relative link targets are followed from the physical directory, so both ends
// have to be expressed without symlinked components.
func physicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
