package release

import (
	"io"

	"github.com/3c0d/obsidian-inject/internal/logging"
	"github.com/3c0d/obsidian-inject/internal/runner"
)

// Publish runs npm publish in dir against registry, streaming its output
// to out. It is never retried: a failure is returned as is.
func Publish(r runner.CommandRunner, dir, registry string, out io.Writer) error {
	args := []string{"publish", "--registry", registry}
	logger := logging.GetLogger("release")
	logger.Info().Str("dir", dir).Str("registry", registry).Msg("publishing package")

	if err := r.StreamInDir(dir, out, "npm", args...); err != nil {
		return runner.Error("npm", args, nil, err)
	}
	return nil
}
