package lexer

import (
	"regexp"
	"strings"
)

var axisTokenRE = regexp.MustCompile(`^[XYZIJKxyz](?:[-+]?\d)`)

// Sanitize is the HTTP boundary-layer helper (§9 Open Question): unlike
// Parse, which raises CodeErrors/-2 on a duplicate axis token, Sanitize
// keeps only the last occurrence of each axis letter per `;`-separated
// sub-command. It is never called from the core parser.
func Sanitize(program string) string {
	parts := strings.Split(program, ";")
	for i, part := range parts {
		parts[i] = sanitizeSubcommand(part)
	}
	return strings.Join(parts, ";")
}

func sanitizeSubcommand(sub string) string {
	fields := strings.Fields(sub)
	if len(fields) == 0 {
		return strings.TrimSpace(sub)
	}

	lastAxisIndex := map[byte]int{}
	for i, f := range fields {
		if axisTokenRE.MatchString(f) {
			lastAxisIndex[strings.ToUpper(f[:1])[0]] = i
		}
	}
	keepIndex := map[int]bool{}
	for _, idx := range lastAxisIndex {
		keepIndex[idx] = true
	}

	merged := make([]string, 0, len(fields))
	for i, f := range fields {
		if axisTokenRE.MatchString(f) {
			if keepIndex[i] {
				merged = append(merged, f)
			}
			continue
		}
		merged = append(merged, f)
	}
	return strings.Join(merged, " ")
}
