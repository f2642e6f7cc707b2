// Package phpexport renders values as PHP literals in the layout of PHP's
// var_export, for files and code fragments the host includes verbatim.
package phpexport

import (
	"strconv"
	"strings"
)

// Array is an ordered PHP associative array. Values are strings, ints or
// nested Arrays.
type Array []Pair

// Pair is one key of an Array.
type Pair struct {
	Key   string
	Value any
}

// Export renders v the way var_export does.
func Export(v any) string {
	var sb strings.Builder
	write(&sb, v, "")
	return sb.String()
}

func write(sb *strings.Builder, v any, indent string) {
	switch val := v.(type) {
	case string:
		sb.WriteString(String(val))
	case int:
		sb.WriteString(strconv.Itoa(val))
	case Array:
		sb.WriteString("array (\n")
		for _, p := range val {
			sb.WriteString(indent + "  ")
			sb.WriteString(String(p.Key))
			sb.WriteString(" => ")
			if _, nested := p.Value.(Array); nested {
				sb.WriteString("\n" + indent + "  ")
			}
			write(sb, p.Value, indent+"  ")
			sb.WriteString(",\n")
		}
		sb.WriteString(indent + ")")
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// String renders s as a single-quoted PHP string.
func String(s string) string {
	return "'" + quoter.Replace(s) + "'"
}
