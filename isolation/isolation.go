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

package isolation

import (
	"fmt"
	"log/slog"

	"github.com/grid-pilot/stager/config"
)

// Wrap prepends the isolated-execution wrapper to a transfer command when
// the file carries an execution-environment tag and a container image is
// configured. This is a universal pre-processing step over transfer
// commands; movers must not special-case it. The per-transfer working
// directory is bind-mounted into the container along with any configured
// extra binds.
func Wrap(args []string, cmtconfig, workdir string) []string {
	if cmtconfig == "" || config.Isolation.Image == "" {
		return args
	}

	runtime := config.Isolation.Command
	if runtime == "" {
		runtime = "singularity"
	}

	wrapped := []string{runtime, "exec"}
	if workdir != "" {
		wrapped = append(wrapped, "-B", workdir)
	}
	for _, bind := range config.Isolation.Binds {
		wrapped = append(wrapped, "-B", bind)
	}
	wrapped = append(wrapped, config.Isolation.Image)
	wrapped = append(wrapped, args...)

	slog.Info(fmt.Sprintf("Wrapped transfer command for %s in %s", cmtconfig, runtime))
	return wrapped
}
