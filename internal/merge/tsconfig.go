package merge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BaselineTarget is the oldest compilerOptions.target kept as is.
const BaselineTarget = "ES2018"

// targetRank orders TypeScript target values. Year targets rank by year.
func targetRank(target string) (int, bool) {
	t := strings.ToLower(strings.TrimSpace(target))
	switch t {
	case "es3":
		return 3, true
	case "es5":
		return 5, true
	case "es6":
		return 2015, true
	case "esnext":
		return 9999, true
	}
	if strings.HasPrefix(t, "es") {
		if year, err := strconv.Atoi(t[2:]); err == nil && year >= 2015 {
			return year, true
		}
	}
	return 0, false
}

// KeepTSConfig decides whether an existing tsconfig.json is left alone. It
// is kept only when it parses and its compilerOptions.target is at or above
// BaselineTarget. The reason describes the decision either way.
func KeepTSConfig(existing []byte) (bool, string) {
	var cfg struct {
		CompilerOptions struct {
			Target string `json:"target"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(existing, &cfg); err != nil {
		return false, "unparseable, replacing"
	}

	target := cfg.CompilerOptions.Target
	if target == "" {
		return false, "no compilerOptions.target, replacing"
	}

	rank, ok := targetRank(target)
	if !ok {
		return false, fmt.Sprintf("unknown target %s, replacing", target)
	}
	baseline, _ := targetRank(BaselineTarget)
	if rank < baseline {
		return false, fmt.Sprintf("target %s is below %s, replacing", target, BaselineTarget)
	}
	return true, fmt.Sprintf("target %s already at or above %s", target, BaselineTarget)
}
