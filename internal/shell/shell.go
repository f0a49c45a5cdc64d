package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
)

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
const waitDelay = 500 * time.Millisecond

// Command appends path to a command template as a single quoted argument.
// A "{}" in the template is replaced instead.
func Command(template, path string) string {
	quoted := shellescape.Quote(path)
	if strings.Contains(template, "{}") {
		return strings.ReplaceAll(template, "{}", quoted)
	}
	return template + " " + quoted
}

// RunContext runs input with sh and returns its stdout and exit code.
// The process is killed when ctx ends, in which case ctx.Err() is returned.
func RunContext(ctx context.Context, input string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", -1, ctxErr
	}

	output := stdout.String()
	if errStr := stderr.String(); errStr != "" {
		slog.Warn("command might be failed",
			"command", input,
			"stderr", errStr,
		)
		if output == "" {
			output = errStr
		}
	}
	if err == nil {
		return output, 0, nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return output, -1, err
	}
	return output, ee.ExitCode(), nil
}

// RunCommand runs input without a deadline
func RunCommand(input string) (string, int, error) {
	return RunContext(context.Background(), input)
}

// ExpandHome expands a leading "~" and environment variables
func ExpandHome(input string) (string, error) {
	result := input

	if strings.HasPrefix(result, "~/") || result == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand ~: %w", err)
		}
		result = home + strings.TrimPrefix(result, "~")
	}

	for rest := result; ; {
		i := strings.Index(rest, "${")
		if i < 0 {
			break
		}
		j := strings.Index(rest[i:], "}")
		if j < 0 {
			return "", fmt.Errorf("unclosed variable brace in input: %s", input)
		}
		rest = rest[i+j:]
	}
	return os.ExpandEnv(result), nil
}
