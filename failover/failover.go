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

package failover

import (
	"strings"
)

// catalog-supplied directive keywords
const (
	allowKeyword = "allow_alt_stageout"
	forceKeyword = "force_alt_stageout"
)

// requested alternate stage-out modes
const (
	ModeOff   = "off"
	ModeOn    = "on"
	ModeForce = "force"
)

// The inputs both failover decisions are computed from. Alternative (Tier-1)
// stage-out exists to rescue production jobs when a Tier-2's primary storage
// is degraded; it is withheld from analysis jobs to avoid overloading Tier-1
// capacity.
type Decision struct {
	// true for user/analysis jobs
	AnalysisJob bool
	// requested mode: "", ModeOff, ModeOn or ModeForce
	RequestedMode string
	// true when the destination endpoint is an object store
	ObjectStore bool
	// free-text directive string supplied by the queue catalog
	Catchall string
}

// AllowAlternateStageOut reports whether stage-out to the alternative
// (Tier-1) storage may be attempted after the primary destination fails.
func AllowAlternateStageOut(d Decision) bool {
	switch d.RequestedMode {
	case ModeOff:
		return false
	case ModeOn:
		return true
	}
	return strings.Contains(d.Catchall, allowKeyword) && !d.AnalysisJob
}

// ForceAlternateStageOut reports whether stage-out must go to the
// alternative storage directly. Never true for object-store destinations:
// object stores carry their own redundancy and fail differently.
func ForceAlternateStageOut(d Decision) bool {
	if d.ObjectStore {
		return false
	}
	if d.RequestedMode == ModeForce {
		return true
	}
	return strings.Contains(d.Catchall, forceKeyword) && !d.AnalysisJob
}
