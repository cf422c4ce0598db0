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

package core

import (
	"strings"
)

// One candidate physical location for a file: the storage endpoint holding
// it and the physical file names it is known under there, in preference
// order.
type Replica struct {
	Endpoint string
	Pfns     []string
}

// A FileSpec describes one logical file involved in a transfer and its
// candidate physical locations. Each FileSpec is owned by exactly one
// in-flight stage operation; movers populate the checksum/size fields after
// a successful transfer.
type FileSpec struct {
	// logical dataset scope and file name; together a unique logical id
	Scope string
	Lfn   string
	// target (stage-out) or source (stage-in) storage endpoint
	DdmEndpoint string
	// ordered candidate physical locations; may be empty
	Replicas []Replica
	// transfer URL, storage URL and physical file name, populated
	// progressively during resolution
	Turl string
	Surl string
	Pfn  string
	// when set, endpoint pinning is relaxed and any replica location is
	// acceptable for stage-in
	AllowAllInputRSEs bool
	// positive when the destination uses the identifier-addressed upload
	// form instead of the scope/name-addressed one
	StorageId int64
	// unique id required when the file is a container format
	Guid string
	// filled in by the mover after a successful transfer
	Checksum     string
	ChecksumType string
	Filesize     int64
	// execution-environment tag; a non-empty value means transfer commands
	// run inside the configured isolation wrapper
	Cmtconfig string
}

// returns the scope-qualified logical identifier ("scope:lfn")
func (f *FileSpec) Did() string {
	return f.Scope + ":" + f.Lfn
}

// returns true if the file's name indicates a container format whose
// registration requires a unique id
func (f *FileSpec) IsContainerFile() bool {
	return f.Lfn != "" && strings.Contains(f.Lfn, ".root")
}

// This "enum" type classifies the job a transfer belongs to.
type JobKind int

const (
	ProductionJob JobKind = iota
	AnalysisJob
)

func (k JobKind) Analysis() bool {
	return k == AnalysisJob
}

// The result of a stage operation, as reported back to the caller. These are
// exactly the fields callers may rely on; StorageURL is empty when the
// operation produced no storage URL.
type StageResult struct {
	Endpoint     string
	StorageURL   string
	PhysicalName string
}
