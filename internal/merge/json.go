package merge

import (
	"fmt"

	"github.com/3c0d/obsidian-inject/internal/jsondoc"
)

// JSONShallow merges the top-level keys of template into existing. Template
// values win for keys both define; keys only in existing stay where they
// are; keys only in template are appended. The bool reports whether any
// value changed; formatting differences alone do not count.
func JSONShallow(existing, template []byte) ([]byte, bool, error) {
	dst, err := jsondoc.Parse(existing)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse existing file: %w", err)
	}
	src, err := jsondoc.Parse(template)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse template: %w", err)
	}

	changed := false
	for _, key := range src.Keys("") {
		path := jsondoc.Path(key)
		v := src.Get(path)
		if old := dst.Get(path); old.Exists() && jsondoc.Equal(old, v) {
			continue
		}
		changed = true
		if err := dst.SetRaw(path, v.Raw); err != nil {
			return nil, false, err
		}
	}
	if !changed {
		return existing, false, nil
	}

	return dst.MarshalIndent(jsondoc.DetectIndent(existing)), true, nil
}
