package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"convert-gateway/vars"
)

// stderrLimit caps how much converter stderr ends up in an error.
const stderrLimit = 2048

// CommandRunner abstracts process execution so tests never spawn marker.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs commands with os/exec. The process is killed when ctx ends.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// CommandConverter shells out to marker's single-file CLI:
//
//	marker_single <input> --output_format markdown --output_dir <dir>
type CommandConverter struct {
	Command string
	Runner  CommandRunner
}

// NewCommandConverter uses the real process runner.
func NewCommandConverter(command string) *CommandConverter {
	return &CommandConverter{Command: command, Runner: &ExecRunner{}}
}

func (c *CommandConverter) Name() string { return vars.BackendMarker }

func (c *CommandConverter) Convert(ctx context.Context, inputPath, format, outputDir string) error {
	_, stderr, err := c.Runner.Run(ctx, c.Command,
		inputPath,
		"--output_format", format,
		"--output_dir", outputDir,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("running %s: %w", c.Command, ctxErr)
		}
		if msg := tail(strings.TrimSpace(stderr), stderrLimit); msg != "" {
			return fmt.Errorf("running %s: %s: %w", c.Command, msg, err)
		}
		return fmt.Errorf("running %s: %w", c.Command, err)
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
