package checksum

import (
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/productbuilder/internal/phpexport"
)

func (m FlatManifest) php() phpexport.Array {
	out := make(phpexport.Array, 0, len(m))
	for _, d := range m {
		files := make(phpexport.Array, 0, len(d.Files))
		for _, f := range d.Files {
			files = append(files, phpexport.Pair{Key: f.Name, Value: f.Hash})
		}
		out = append(out, phpexport.Pair{Key: d.Dir, Value: files})
	}
	return out
}

func namedPHP(hashes []NamedHash) phpexport.Array {
	out := make(phpexport.Array, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, phpexport.Pair{Key: h.Name, Value: h.Hash})
	}
	return out
}

// renderFile renders the manifest file: an opener, a header comment and one
// assignment per variable.
func renderFile(id, version string, at time.Time, vars phpexport.Array) []byte {
	var body strings.Builder
	for _, v := range vars {
		body.WriteString("$" + v.Key + " = " + phpexport.Export(v.Value) + ";\r\n")
	}
	lines := []string{
		"<?php",
		"// " + id + " " + version + ", " + HeaderTime(at),
		body.String(),
	}
	return []byte(strings.Join(lines, "\r\n"))
}

// HeaderTime formats t like "15:04:05, Mon Jan 2nd 2006".
func HeaderTime(t time.Time) string {
	return t.Format("15:04:05, Mon Jan ") + ordinal(t.Day()) + t.Format(" 2006")
}

func ordinal(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(day) + suffix
}
