package xmldoc

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// DefaultEncoding is the charset declared when a project names none.
const DefaultEncoding = "ISO-8859-1"

var errNoImplementation = errors.New("charset has no implementation")

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// Prolog returns the XML declaration followed by the blank line the host
// importer expects.
func Prolog(charset string) string {
	if charset == "" {
		charset = DefaultEncoding
	}
	return `<?xml version="1.0" encoding="` + charset + `"?>` + "\r\n\r\n"
}

// Encode prefixes the UTF-8 body with the prolog and transcodes the result
// to charset. Runes the charset cannot represent become numeric character
// references; inside CDATA the section is closed around the reference.
// Charset names are IANA names, so ISO-8859-1 is Latin-1 and not
// windows-1252.
func Encode(body []byte, charset string) ([]byte, error) {
	if charset == "" {
		charset = DefaultEncoding
	}
	if isUTF8(charset) {
		return append([]byte(Prolog(charset)), body...), nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err == nil && enc == nil {
		err = errNoImplementation
	}
	if err != nil {
		return nil, foundationerrors.ValidationError("unsupported document encoding").
			WithContext("encoding", charset).
			WithCause(err).
			Build()
	}

	out := Prolog(charset) + splitCDATA(string(body), newRepertoire(enc))
	encoded, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).String(out)
	if err != nil {
		return nil, foundationerrors.InternalError("encode product document").
			WithContext("encoding", charset).
			WithCause(err).
			Build()
	}
	return []byte(encoded), nil
}

// repertoire reports whether a charset can represent a rune.
type repertoire struct {
	enc   encoding.Encoding
	known map[rune]bool
}

func newRepertoire(enc encoding.Encoding) *repertoire {
	return &repertoire{enc: enc, known: make(map[rune]bool)}
}

func (r *repertoire) has(c rune) bool {
	if ok, seen := r.known[c]; seen {
		return ok
	}
	_, err := r.enc.NewEncoder().String(string(c))
	r.known[c] = err == nil
	return err == nil
}

// splitCDATA rewrites every CDATA section of doc so that runes outside the
// repertoire sit between sections as character references. Text outside
// CDATA is left to the encoder. Serialized text never contains a literal
// "<![CDATA[" and every "]]>" in a section ends it, so markers are exact.
func splitCDATA(doc string, rep *repertoire) string {
	var sb strings.Builder
	for {
		start := strings.Index(doc, cdataOpen)
		if start < 0 {
			sb.WriteString(doc)
			return sb.String()
		}
		sb.WriteString(doc[:start])
		doc = doc[start+len(cdataOpen):]
		end := strings.Index(doc, cdataClose)
		if end < 0 {
			end = len(doc)
		}
		writeCDATA(&sb, doc[:end], rep)
		doc = doc[min(end+len(cdataClose), len(doc)):]
	}
}

func writeCDATA(sb *strings.Builder, text string, rep *repertoire) {
	run := 0
	flush := func(to int) {
		if to > run {
			sb.WriteString(cdataOpen)
			sb.WriteString(text[run:to])
			sb.WriteString(cdataClose)
		}
	}
	for i, c := range text {
		if c < utf8.RuneSelf || rep.has(c) {
			continue
		}
		flush(i)
		sb.WriteString("&#" + strconv.Itoa(int(c)) + ";")
		run = i + utf8.RuneLen(c)
	}
	if run == 0 {
		// Keep empty and fully representable sections as they were.
		sb.WriteString(cdataOpen + text + cdataClose)
		return
	}
	flush(len(text))
}
