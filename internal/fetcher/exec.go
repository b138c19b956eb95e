package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExecLauncher launches real child processes with os/exec.
type ExecLauncher struct {
	// Env is appended to the current environment, as KEY=VALUE pairs.
	Env []string
}

// NewExecLauncher creates a launcher whose processes inherit the current
// environment plus env.
func NewExecLauncher(env ...string) *ExecLauncher {
	return &ExecLauncher{Env: env}
}

type execProcess struct {
	cmd    *exec.Cmd
	output io.Reader
}

// Launch starts the command with stdout and stderr sharing one pipe.
func (l *ExecLauncher) Launch(ctx context.Context, name string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	// Same *os.File for both streams keeps their relative order.
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	return &execProcess{cmd: cmd, output: stdout}, nil
}

func (p *execProcess) Output() io.Reader {
	return p.output
}

// Wait must only be called after Output has been drained.
func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to wait for process: %w", err)
}
