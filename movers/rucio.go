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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/core"
	"github.com/grid-pilot/stager/isolation"
	"github.com/grid-pilot/stager/trace"
)

// name of the external transfer tool
const rucioCommand = "rucio"

// This mover drives the rucio command-line client, with the WebDAV client
// library as its in-process fallback.
type rucioMover struct {
	endpoints map[string]config.EndpointConfig
	fallback  *webdavClient
}

func newRucioMover(endpoints map[string]config.EndpointConfig) *rucioMover {
	return &rucioMover{endpoints: endpoints, fallback: &webdavClient{}}
}

func (m *rucioMover) Name() string {
	return "rucio"
}

func (m *rucioMover) Schemes() []string {
	return []string{"srm", "gsiftp", "root", "https", "s3", "davs"}
}

// StageIn downloads the file into the directory of dst and relocates it to
// dst itself. The download command pins a replica endpoint unless the spec
// relaxes endpoint pinning; non-deterministic source endpoints additionally
// need the pre-resolved transfer URL.
func (m *rucioMover) StageIn(ctx context.Context, dst string, spec *core.FileSpec) (core.StageResult, error) {
	dir := filepath.Dir(dst)

	args, err := m.downloadArgs(ctx, dir, spec)
	if err != nil {
		return core.StageResult{}, err
	}

	command := isolation.Wrap(append([]string{rucioCommand}, args...), spec.Cmtconfig, dir)
	slog.Info(fmt.Sprintf("rucio: staging in %s: %v", spec.Did(), command))
	err = runWithFallback(ctx, "rucio", spec.Did(), timeoutFor(spec.Filesize), command, func() error {
		return m.fallback.download(ctx, dir, spec)
	})
	if err != nil {
		return core.StageResult{}, &StageInError{Did: spec.Did(), Output: err.Error()}
	}

	// The tool writes the file under a scope/name directory; callers expect
	// the flat destination path.
	downloaded := filepath.Join(dir, spec.Scope, spec.Lfn)
	if err := os.Rename(downloaded, dst); err != nil {
		slog.Error(fmt.Sprintf("rucio: couldn't relocate downloaded file %s: %s", spec.Did(), err))
		return core.StageResult{}, &RelocationError{Did: spec.Did(), From: downloaded, To: dst, Message: err.Error()}
	}

	endpoint := spec.DdmEndpoint
	if len(spec.Replicas) > 0 {
		endpoint = spec.Replicas[0].Endpoint
		if info, err := os.Stat(dst); err == nil {
			spec.Filesize = info.Size()
		}
	}
	return core.StageResult{Endpoint: endpoint, PhysicalName: spec.Lfn}, nil
}

// This helper builds the download command's arguments. The command pins the
// first replica's endpoint unless endpoint pinning is relaxed; files without
// replica metadata are fetched from their source endpoint directly, which
// for a non-deterministic endpoint needs the pre-resolved transfer URL.
func (m *rucioMover) downloadArgs(ctx context.Context, dir string, spec *core.FileSpec) ([]string, error) {
	args := []string{"-v", "download"}
	args = append(args, traceArgs(ctx)...)
	args = append(args, "--dir", dir)
	if len(spec.Replicas) > 0 {
		if !spec.AllowAllInputRSEs {
			args = append(args, "--rse", spec.Replicas[0].Endpoint)
		}
	} else if isDeterministic(m.endpoints, spec.DdmEndpoint) {
		args = append(args, "--rse", spec.DdmEndpoint)
	} else {
		if spec.Turl == "" {
			return nil, &UnknownPhysicalLocationError{Did: spec.Did(), Endpoint: spec.DdmEndpoint}
		}
		args = append(args, "--rse", spec.DdmEndpoint, "--pfn", spec.Turl)
	}
	return append(args, spec.Did()), nil
}

// StageOut uploads the file at src without registering it. Destinations
// addressed by a storage identifier use the identifier form; everything else
// is scope/name-addressed, with a unique id attached for container files.
func (m *rucioMover) StageOut(ctx context.Context, src string, spec *core.FileSpec) (core.StageResult, error) {
	command := isolation.Wrap(append([]string{rucioCommand}, m.uploadArgs(spec)...),
		spec.Cmtconfig, filepath.Dir(src))
	slog.Info(fmt.Sprintf("rucio: staging out %s: %v", spec.Did(), command))
	err := runWithFallback(ctx, "rucio", spec.Did(), timeoutFor(spec.Filesize), command, func() error {
		return m.fallback.upload(ctx, src, spec)
	})
	if err != nil {
		return core.StageResult{}, &StageOutError{Did: spec.Did(), Output: err.Error()}
	}

	return core.StageResult{
		Endpoint:     spec.DdmEndpoint,
		StorageURL:   spec.Surl,
		PhysicalName: spec.Lfn,
	}, nil
}

// This helper builds the upload command's arguments. Destinations addressed
// by a storage identifier use the identifier form and carry an explicit
// physical name when the endpoint is non-deterministic; the scope/name form
// attaches a unique id for container files.
func (m *rucioMover) uploadArgs(spec *core.FileSpec) []string {
	name := spec.Pfn
	if name == "" {
		name = spec.Lfn
	}

	args := []string{"-v", "upload"}
	if spec.StorageId > 0 {
		args = append(args, "--no-register", "--rse", spec.DdmEndpoint, "--scope", spec.Scope)
		if !isDeterministic(m.endpoints, spec.DdmEndpoint) {
			args = append(args, "--pfn", spec.Turl)
		}
	} else {
		if spec.IsContainerFile() && spec.Guid != "" {
			args = append(args, "--guid", spec.Guid)
		}
		args = append(args, "--no-register", "--rse", spec.DdmEndpoint, "--scope", spec.Scope)
	}
	return append(args, name)
}

// This helper renders the trace report carried by the context (if any) as
// the tool's --trace_* arguments.
func traceArgs(ctx context.Context) []string {
	report := trace.FromContext(ctx)
	if report == nil {
		return nil
	}
	return report.CommandArgs()
}
