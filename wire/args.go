package wire

import "strings"

// Args splits a command payload on spaces and tabs. Index 0 is usually the
// command word the client typed, e.g. "/login".
func Args(buf string) []string {
	return strings.FieldsFunc(buf, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}

// Arg returns args[i] or "" when the payload is too short
func Arg(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}
