package shellrunner

import "strings"

// SingleQuote applies the canonical POSIX single-quote escaping rule: wrap
// the value in single quotes, replacing any embedded ' with '\''. Every
// caller that interpolates untrusted input into a shell string (such as
// the image name inside the image-import `sh -c` pipeline) must route it through this
// function first — no argument reaches a shell unescaped.
func SingleQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
