// Package logfields holds the canonical slog attribute keys used by the
// product builder so that log output stays greppable across packages.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyProduct    = "product"
	KeyVersion    = "version"
	KeySection    = "section"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyHook       = "hook"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyRevision   = "revision"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr   { return slog.String(KeyBuildID, id) }
func Product(id string) slog.Attr   { return slog.String(KeyProduct, id) }
func Version(v string) slog.Attr    { return slog.String(KeyVersion, v) }
func Section(s string) slog.Attr    { return slog.String(KeySection, s) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func File(f string) slog.Attr       { return slog.String(KeyFile, f) }
func Hook(h string) slog.Attr       { return slog.String(KeyHook, h) }
func Count(n int) slog.Attr         { return slog.Int(KeyCount, n) }
func Revision(r string) slog.Attr   { return slog.String(KeyRevision, r) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d)/float64(time.Millisecond))
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
