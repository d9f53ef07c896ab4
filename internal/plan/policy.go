package plan

import (
	"github.com/3c0d/obsidian-inject/internal/merge"
	"github.com/3c0d/obsidian-inject/internal/types"
)

// Merger combines existing target content with the template. The bool
// reports whether the result differs from existing.
type Merger func(existing, template []byte) ([]byte, bool, error)

// KeepFunc reports whether existing content is left untouched, with a reason.
type KeepFunc func(existing []byte) (bool, string)

// Policy is how one managed file is written. Merge is set only for
// structural-merge and Keep only for conditional-overwrite.
type Policy struct {
	Kind  types.PolicyKind
	Merge Merger
	Keep  KeepFunc
}

// AlwaysOverwrite replaces the target file.
func AlwaysOverwrite() Policy {
	return Policy{Kind: types.PolicyAlwaysOverwrite}
}

// NeverOverwrite writes the file only when it is absent.
func NeverOverwrite() Policy {
	return Policy{Kind: types.PolicyNeverOverwrite}
}

// StructuralMerge combines an existing file with the template using m.
func StructuralMerge(m Merger) Policy {
	return Policy{Kind: types.PolicyStructuralMerge, Merge: m}
}

// ConditionalOverwrite replaces the file unless keep says otherwise.
func ConditionalOverwrite(keep KeepFunc) Policy {
	return Policy{Kind: types.PolicyConditionalOverwrite, Keep: keep}
}

// mergeIgnore unions ignore rules, adding extra rules such as the backup
// directory.
func mergeIgnore(extra ...string) Merger {
	return func(existing, template []byte) ([]byte, bool, error) {
		out, changed := merge.IgnoreLines(existing, template, extra...)
		return out, changed, nil
	}
}

func mergeEnv(existing, template []byte) ([]byte, bool, error) {
	out, added := merge.EnvKeys(existing, template)
	return out, len(added) > 0, nil
}
