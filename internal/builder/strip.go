package builder

import (
	"regexp"
	"strings"
)

// buildOnly matches a development-only block from a line starting "#if" to
// a line starting "#endif".
var buildOnly = regexp.MustCompile(`(?ms)^#if.*?^#endif`)

// StripBuildComments removes the first "#if ... #endif" block from plugin
// code. Code without "#if" is returned unchanged; otherwise the code is
// trimmed before the block is removed.
func StripBuildComments(code string) string {
	if !strings.Contains(code, "#if") {
		return code
	}
	code = strings.TrimSpace(code)
	loc := buildOnly.FindStringIndex(code)
	if loc == nil {
		return code
	}
	return code[:loc[0]] + code[loc[1]:]
}
