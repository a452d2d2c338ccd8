package updates

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type Runner interface {
	Run(context.Context, ...string) (string, error)
}

type RunnerImpl struct{}

func (r *RunnerImpl) Run(ctx context.Context, args ...string) (string, error) {
	stderr := &bytes.Buffer{}
	stdout := &bytes.Buffer{}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec
	// keep tool output parseable regardless of the host locale
	cmd.Env = append(cmd.Environ(), "LC_ALL=C")

	cmd.Stderr = stderr
	cmd.Stdout = stdout
	err := cmd.Run()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%s: %v: %s", args[0], err, msg)
		}
		return stdout.String(), err
	}

	return stdout.String(), nil
}
