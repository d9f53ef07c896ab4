// Package merge combines an existing target file with its template by a
// type-aware rule instead of overwriting it.
package merge

import (
	"bytes"
	"strings"
)

// IgnoreMarker heads the block of lines appended to an ignore file.
const IgnoreMarker = "# Added by obsidian-inject"

// IgnoreLines returns existing with every rule line of template (and of
// extra) that is not already present appended under IgnoreMarker. Rule
// lines are non-blank, non-comment lines compared after trimming spaces.
// Existing content is never reordered or removed. The bool reports
// whether anything was appended.
func IgnoreLines(existing, template []byte, extra ...string) ([]byte, bool) {
	present := make(map[string]bool)
	for _, line := range splitLines(existing) {
		if rule, ok := ignoreRule(line); ok {
			present[rule] = true
		}
	}

	var missing []string
	candidates := append(splitLines(template), extra...)
	for _, line := range candidates {
		rule, ok := ignoreRule(line)
		if !ok || present[rule] {
			continue
		}
		present[rule] = true
		missing = append(missing, rule)
	}

	if len(missing) == 0 {
		return existing, false
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	if !bytes.Contains(existing, []byte(IgnoreMarker)) {
		if len(existing) > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(IgnoreMarker)
		buf.WriteByte('\n')
	}
	for _, rule := range missing {
		buf.WriteString(rule)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), true
}

func ignoreRule(line string) (string, bool) {
	rule := strings.TrimSpace(line)
	if rule == "" || strings.HasPrefix(rule, "#") {
		return "", false
	}
	return rule, true
}

func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
