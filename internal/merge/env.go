package merge

import (
	"bytes"
	"strings"

	"github.com/joho/godotenv"
)

// EnvKeys appends an empty "KEY=" line to existing for every key declared
// in template that existing does not define. Existing lines, including
// their values, are left byte for byte, and lines that do not parse are
// skipped rather than failing the merge. It returns the added keys in
// template order.
func EnvKeys(existing, template []byte) ([]byte, []string) {
	have := make(map[string]bool)
	for _, key := range envKeys(existing) {
		have[key] = true
	}

	var added []string
	for _, key := range envKeys(template) {
		if have[key] {
			continue
		}
		have[key] = true
		added = append(added, key)
	}

	if len(added) == 0 {
		return existing, nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	for _, key := range added {
		buf.WriteString(key)
		buf.WriteString("=\n")
	}
	return buf.Bytes(), added
}

// envKeys lists the keys assigned in data in the order they appear. Each
// line is parsed on its own by godotenv; a line it rejects still yields
// its key when the text before "=" is a plain name.
func envKeys(data []byte) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(key string) {
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, line := range splitLines(data) {
		parsed, err := godotenv.Unmarshal(line)
		if err != nil {
			add(lineKey(line))
			continue
		}
		for key := range parsed {
			add(key)
		}
	}
	return keys
}

// lineKey returns the name assigned on a KEY=value or KEY: value line.
func lineKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimPrefix(line, "export ")
	i := strings.IndexAny(line, "=:")
	if i <= 0 {
		return ""
	}
	key := strings.TrimSpace(line[:i])
	if strings.ContainsAny(key, " \t\"'`") {
		return ""
	}
	return key
}
