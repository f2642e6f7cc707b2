package checksum

import (
	"path"
	"sort"
	"strings"
)

// FileHash is one file's hash within a directory.
type FileHash struct {
	Name string
	Hash string
}

// DirHashes groups file hashes under a directory key such as "/includes".
type DirHashes struct {
	Dir   string
	Files []FileHash
}

// FlatManifest is sorted by directory key, then basename.
type FlatManifest []DirHashes

// NamedHash is a hash keyed by hook name or template title.
type NamedHash struct {
	Name string
	Hash string
}

// ExtendedManifest adds plugin and template hashes to the file hashes.
type ExtendedManifest struct {
	Files     FlatManifest
	Plugins   []NamedHash
	Templates []NamedHash
}

// DirKey returns the manifest directory key for a slash-separated path
// relative to the staging root.
func DirKey(rel string) string {
	dir := strings.Trim(path.Dir(strings.TrimPrefix(rel, "/")), ".")
	return "/" + strings.Trim(dir, "/")
}

// Lookup returns the hash recorded for a relative path.
func (m FlatManifest) Lookup(rel string) (string, bool) {
	key, base := DirKey(rel), path.Base(rel)
	for _, d := range m {
		if d.Dir != key {
			continue
		}
		for _, f := range d.Files {
			if f.Name == base {
				return f.Hash, true
			}
		}
	}
	return "", false
}

// Count returns the number of files in the manifest.
func (m FlatManifest) Count() int {
	n := 0
	for _, d := range m {
		n += len(d.Files)
	}
	return n
}

type fileResult struct {
	rel  string
	hash string
}

// newFlatManifest groups and sorts hashed files. Later entries for the same
// path replace earlier ones.
func newFlatManifest(results []fileResult) FlatManifest {
	byDir := make(map[string]map[string]string)
	for _, r := range results {
		key := DirKey(r.rel)
		if byDir[key] == nil {
			byDir[key] = make(map[string]string)
		}
		byDir[key][path.Base(r.rel)] = r.hash
	}

	keys := make([]string, 0, len(byDir))
	for k := range byDir {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(FlatManifest, 0, len(keys))
	for _, k := range keys {
		names := make([]string, 0, len(byDir[k]))
		for n := range byDir[k] {
			names = append(names, n)
		}
		sort.Strings(names)
		d := DirHashes{Dir: k, Files: make([]FileHash, 0, len(names))}
		for _, n := range names {
			d.Files = append(d.Files, FileHash{Name: n, Hash: byDir[k][n]})
		}
		out = append(out, d)
	}
	return out
}
