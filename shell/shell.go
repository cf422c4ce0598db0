// Copyright (c) 2024 The Grid Pilot Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Run executes an external command with a wall-clock budget, returning its
// exit status and combined stdout/stderr text. The output is captured
// verbatim for diagnostics; the contract with external transfer tools is
// exit status plus text, nothing structured. A command that exceeds its
// budget is killed and reported as failed; it is never retried in place.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var combined bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	slog.Debug(fmt.Sprintf("Executing command: %s %s", name, strings.Join(args, " ")))
	err := cmd.Run()

	status := 0
	if err != nil {
		status = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		}
		if ctx.Err() == context.DeadlineExceeded {
			err = &TimeoutError{Command: name, Timeout: timeout}
		}
	}

	slog.Debug(fmt.Sprintf("Command %s finished with status %d", name, status))
	return status, combined.String(), err
}
