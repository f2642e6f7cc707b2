package checksum

import (
	"bytes"
	"crypto/md5" //nolint:gosec // host-compatible file verification format
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

var binaryExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
}

// IsBinary reports whether path is hashed without line-ending normalization.
func IsBinary(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := binaryExtensions[ext]
	return ok
}

// HashFile hashes the file at path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", foundationerrors.IOError("read file for checksum").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	if IsBinary(path) {
		return sum(data), nil
	}
	return sum(normalize(data)), nil
}

// HashInline hashes in-memory text with line endings normalized.
func HashInline(content string) string {
	return sum(normalize([]byte(content)))
}

func normalize(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
}

func sum(data []byte) string {
	h := md5.Sum(data) //nolint:gosec // host-compatible file verification format
	return hex.EncodeToString(h[:])
}
