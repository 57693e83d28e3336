package helper

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"time"
)

var ErrCommandExecutionTimeout = errors.New("command execution timeout exceeded")

// RunCommandWithTimeout runs command and returns it's standard output. If timeout exceeded the returned error is ErrCommandExecutionTimeout
func RunCommandWithTimeout(timeout time.Duration, name string, arg ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, arg...)

	result, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		err = ErrCommandExecutionTimeout
	}
	return result, err
}

func RoundToTwoDecimalPlaces(v float64) float64 {
	return math.Round(v*100) / 100
}
