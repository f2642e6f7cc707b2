// Package files expands, merges and stages the file set shipped with a
// product.
package files

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// vcsMarkers are directory names never shipped.
var vcsMarkers = map[string]struct{}{
	".svn": {},
	".git": {},
	".hg":  {},
	".bzr": {},
	"CVS":  {},
}

// Resolver resolves paths against the host source root.
type Resolver struct {
	Root string
}

// NewResolver returns a resolver rooted at root.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: filepath.Clean(root)}
}

// Expand flattens paths into files. Directories are walked in lexical
// order; entries under a VCS marker directory are excluded. Every declared
// path must exist. Output paths are absolute, slash-separated and unique.
func (r *Resolver) Expand(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		p = filepath.ToSlash(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, declared := range paths {
		abs := r.abs(declared)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, foundationerrors.IOError("declared file does not exist").
				WithContext("path", declared).
				WithCause(err).
				Build()
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if _, skip := vcsMarkers[d.Name()]; skip {
					return filepath.SkipDir
				}
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, foundationerrors.IOError("walk declared directory").
				WithContext("path", declared).
				WithCause(err).
				Build()
		}
	}
	return out, nil
}

// Merge concatenates explicit and derived paths, dropping repeats.
func Merge(explicit, derived []string) []string {
	out := make([]string, 0, len(explicit)+len(derived))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{explicit, derived} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Rel returns the slash-separated path of file relative to the root.
// Files outside the root are an IO error.
func (r *Resolver) Rel(file string) (string, error) {
	rel, err := filepath.Rel(r.Root, filepath.FromSlash(file))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", foundationerrors.IOError("file is outside the source root").
			WithContext("path", file).
			WithContext("root", r.Root).
			Build()
	}
	return filepath.ToSlash(rel), nil
}

// CopyAll copies files under dest, keeping their path relative to the root.
// It returns the relative destinations in input order. Zero files is a
// no-op and creates nothing.
func (r *Resolver) CopyAll(files []string, dest string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	copied := make([]string, 0, len(files))
	for _, file := range files {
		src := r.abs(file)
		rel, err := r.Rel(src)
		if err != nil {
			return copied, err
		}
		if err := copyFile(src, filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			return copied, err
		}
		copied = append(copied, rel)
	}
	return copied, nil
}

func (r *Resolver) abs(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(r.Root, p)
}

// CopyFile copies src to dst, creating parent directories and keeping the
// source file mode.
func CopyFile(src, dst string) error {
	return copyFile(src, dst)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return foundationerrors.IOError("open source file").WithContext("path", src).WithCause(err).Build()
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return foundationerrors.IOError("stat source file").WithContext("path", src).WithCause(err).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return foundationerrors.StagingError("create staging directory").WithContext("path", filepath.Dir(dst)).WithCause(err).Build()
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return foundationerrors.StagingError("create staged file").WithContext("path", dst).WithCause(err).Build()
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = foundationerrors.StagingError("close staged file").WithContext("path", dst).WithCause(cerr).Build()
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return foundationerrors.StagingError("write staged file").WithContext("path", dst).WithCause(err).Build()
		}
		return foundationerrors.IOError("copy file").WithContext("path", src).WithCause(err).Build()
	}
	return nil
}
