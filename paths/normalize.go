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

package paths

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/grid-pilot/stager/config"
)

// VerifyRucioPath makes sure a destination path in a content-addressed
// namespace is suffixed "/rucio" exactly once. It returns the corrected
// path and whether a correction was needed. Idempotent: applying it twice
// yields the same string as applying it once. Paths whose "rucio" segment
// is not terminal (e.g. ".../rucio/extra") are left alone.
func VerifyRucioPath(spath string) (string, bool) {
	if !strings.Contains(spath, rucioPrefix) {
		return spath, false
	}
	switch {
	case strings.HasSuffix(spath, "/"+rucioPrefix):
		return spath, false
	case strings.HasSuffix(spath, "/"+rucioPrefix+"/"):
		return strings.TrimSuffix(spath, "/"), true
	case strings.HasSuffix(spath, rucioPrefix+"/"):
		return strings.TrimSuffix(spath, rucioPrefix+"/") + "/" + rucioPrefix, true
	case strings.HasSuffix(spath, rucioPrefix):
		return strings.TrimSuffix(spath, rucioPrefix) + "/" + rucioPrefix, true
	}
	return spath, false
}

// NormalizeQueuePaths corrects malformed "/rucio" suffixes in the queue's
// per-token destination paths, rewriting the stored configuration fields.
// Each correction is logged as a warning; correctly formatted paths are
// confirmed silently.
func NormalizeQueuePaths(q *config.QueueConfig) {
	for token, tp := range q.Tokens {
		if fixed, changed := VerifyRucioPath(tp.Path); changed {
			slog.Warn(fmt.Sprintf("rucio path for token %s is not correctly formatted: %s", token, tp.Path))
			tp.Path = fixed
			slog.Info(fmt.Sprintf("Updated path for token %s to: %s", token, fixed))
		}
		if fixed, changed := VerifyRucioPath(tp.ProdPath); changed {
			slog.Warn(fmt.Sprintf("rucio prodpath for token %s is not correctly formatted: %s", token, tp.ProdPath))
			tp.ProdPath = fixed
			slog.Info(fmt.Sprintf("Updated prodpath for token %s to: %s", token, fixed))
		}
	}
}
