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

package movers

import (
	"fmt"
	"strings"
)

// client states attached to terminal staging errors, derived from the
// external tool's diagnostic output
const (
	StateCopyError      = "COPY_ERROR"
	StateContextFail    = "CONTEXT_FAIL"
	StateFileExists     = "FILE_EXIST"
	StateNoSpace        = "NO_SPACE"
	StateGlobusFail     = "GLOBUS_FAIL"
	StateNoFile         = "NO_FILE"
	StateChecksumNotSup = "CHKSUM_NOTSUP"
	StateAdlerMismatch  = "AD_MISMATCH"
	StateMd5Mismatch    = "MD5_MISMATCH"
)

// This helper classifies the combined output of a failed transfer tool into
// a client state and a human-readable cause. The patterns come from the
// tools' observed diagnostics; anything unrecognized is a plain copy error.
func classifyOutput(output string) (string, string) {
	switch {
	case strings.Contains(output, "Could not establish context"):
		return StateContextFail,
			fmt.Sprintf("Could not establish context (proxy or VO extension has probably expired): %s", output)
	case strings.Contains(output, "File exists") ||
		strings.Contains(output, "SRM_FILE_BUSY") ||
		strings.Contains(output, "file already exists"):
		return StateFileExists, fmt.Sprintf("File already exists in the destination: %s", output)
	case strings.Contains(output, "No space left on device"):
		return StateNoSpace, fmt.Sprintf("No available space left on local disk: %s", output)
	case strings.Contains(output, "globus_xio:"):
		return StateGlobusFail, fmt.Sprintf("Globus system error: %s", output)
	case strings.Contains(output, "No such file or directory"):
		return StateNoFile, output
	case strings.Contains(output, "query chksum is not supported") ||
		strings.Contains(output, "Unable to checksum"):
		return StateChecksumNotSup, output
	case strings.Contains(output, "does not match the checksum"):
		if strings.Contains(output, "adler32") {
			return StateAdlerMismatch, output
		}
		return StateMd5Mismatch, output
	}
	return StateCopyError, output
}

// This error type indicates that no mover is registered under the requested
// protocol name.
type UnknownMoverError struct {
	Name string
}

func (e UnknownMoverError) Error() string {
	return fmt.Sprintf("No transfer mechanism is registered under the name %q", e.Name)
}

// This error type indicates that a file on a non-deterministic endpoint has
// no pre-resolved transfer URL, so its physical location cannot be known.
type UnknownPhysicalLocationError struct {
	Did      string
	Endpoint string
}

func (e UnknownPhysicalLocationError) Error() string {
	return fmt.Sprintf("Unknown physical location for %s: endpoint %s is non-deterministic and no transfer URL was resolved",
		e.Did, e.Endpoint)
}

// This error type indicates that a file could not be staged in by either
// the external command or the client library. Output holds the diagnostic
// text of the last mechanism tried, verbatim.
type StageInError struct {
	Did    string
	State  string
	Output string
}

func (e StageInError) Error() string {
	state, cause := classifyOutput(e.Output)
	if e.State != "" {
		state = e.State
	}
	return fmt.Sprintf("Couldn't stage in %s [%s]: %s", e.Did, state, cause)
}

// This error type indicates that a file could not be staged out by either
// the external command or the client library.
type StageOutError struct {
	Did    string
	State  string
	Output string
}

func (e StageOutError) Error() string {
	state, cause := classifyOutput(e.Output)
	if e.State != "" {
		state = e.State
	}
	return fmt.Sprintf("Couldn't stage out %s [%s]: %s", e.Did, state, cause)
}

// This error type indicates that a downloaded file could not be moved from
// the tool's scope/name directory layout to its flat destination path. It
// reports under the stage-out kind, which monitoring has always filed these
// failures under.
type RelocationError struct {
	Did     string
	From    string
	To      string
	Message string
}

func (e RelocationError) Error() string {
	return fmt.Sprintf("Couldn't stage out %s: downloaded file could not be relocated from %s to %s: %s",
		e.Did, e.From, e.To, e.Message)
}

// This error type indicates that the location metadata for a file could not
// be retrieved or understood within its timeout.
type MetadataLookupError struct {
	Did     string
	Message string
}

func (e MetadataLookupError) Error() string {
	return fmt.Sprintf("Couldn't look up the location metadata for %s: %s", e.Did, e.Message)
}
