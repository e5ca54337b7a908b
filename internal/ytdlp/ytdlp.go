// Package ytdlp wraps the external yt-dlp utility. The command runner is
// injectable so nothing shells out in tests.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes one yt-dlp invocation and returns captured output.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs the real binary.
type ExecRunner struct {
	Binary string
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Binary: "yt-dlp"}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("yt-dlp failed: %w", err)
	}

	return stdout.String(), stderr.String(), nil
}
