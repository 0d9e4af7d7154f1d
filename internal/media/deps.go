package media

import (
	"context"
	"os/exec"
)

// commandRunner executes external commands and returns their combined output.
// Injected so tests can fake ffmpeg/ffprobe invocations.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// osCommandRunner runs real processes via exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by this package, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
