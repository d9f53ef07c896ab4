// Package jsondoc edits JSON objects in place, so files like package.json
// are rewritten without reshuffling keys the tool does not own. Reads go
// through gjson, edits through sjson and output through pretty.
package jsondoc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Document is an encoded JSON object. Existing keys keep their position
// when set; new keys are appended.
type Document struct {
	raw []byte
}

// New returns an empty document.
func New() *Document {
	return &Document{raw: []byte("{}")}
}

// Parse validates data, which must hold a single JSON object.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, errors.New("top-level JSON value is not an object")
	}
	return &Document{raw: append([]byte(nil), data...)}, nil
}

// pathEscaper escapes the characters gjson and sjson treat as path syntax.
var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
	"!", `\!`,
)

// Path joins object keys into a path, escaping dots and other path syntax
// so keys like "1.2.3" or "@types/node" address a single member.
func Path(keys ...string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = pathEscaper.Replace(k)
	}
	return strings.Join(escaped, ".")
}

// Get returns the value at path. An empty path is the whole document.
func (d *Document) Get(path string) gjson.Result {
	if path == "" {
		return gjson.ParseBytes(d.raw)
	}
	return gjson.GetBytes(d.raw, path)
}

// GetString returns the value at path when it is a string.
func (d *Document) GetString(path string) (string, bool) {
	r := d.Get(path)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// Has reports whether path is present.
func (d *Document) Has(path string) bool {
	return d.Get(path).Exists()
}

// Keys returns the keys of the object at path in document order, or nil
// when path is not an object.
func (d *Document) Keys(path string) []string {
	r := d.Get(path)
	if !r.IsObject() {
		return nil
	}
	keys := []string{}
	r.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Set stores value at path, creating missing parent objects.
func (d *Document) Set(path string, value interface{}) error {
	raw, err := sjson.SetBytes(d.raw, path, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	d.raw = raw
	return nil
}

// SetRaw stores already encoded JSON at path.
func (d *Document) SetRaw(path, value string) error {
	raw, err := sjson.SetRawBytes(d.raw, path, []byte(value))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	d.raw = raw
	return nil
}

// EnsureObject makes path an object, replacing a non-object value.
func (d *Document) EnsureObject(path string) error {
	if d.Get(path).IsObject() {
		return nil
	}
	return d.SetRaw(path, "{}")
}

// Delete removes path and reports whether it was present.
func (d *Document) Delete(path string) (bool, error) {
	if !d.Has(path) {
		return false, nil
	}
	raw, err := sjson.DeleteBytes(d.raw, path)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	d.raw = raw
	return true, nil
}

// Bytes returns the document as currently encoded.
func (d *Document) Bytes() []byte {
	return d.raw
}

// Marshal re-indents the document with two spaces and a trailing newline.
func (d *Document) Marshal() []byte {
	return d.MarshalIndent("  ")
}

// MarshalIndent is like Marshal with a custom indent unit. Arrays are
// always expanded one element per line.
func (d *Document) MarshalIndent(unit string) []byte {
	return pretty.PrettyOptions(d.raw, &pretty.Options{Indent: unit})
}

// Equal reports whether two values encode identically once whitespace is
// removed. Key order is significant.
func Equal(a, b gjson.Result) bool {
	return bytes.Equal(pretty.Ugly([]byte(a.Raw)), pretty.Ugly([]byte(b.Raw)))
}

// DetectIndent returns the indent unit of an encoded document: the leading
// whitespace of its first indented line, or two spaces.
func DetectIndent(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" && len(trimmed) < len(line) {
			return line[:len(line)-len(trimmed)]
		}
	}
	return "  "
}
