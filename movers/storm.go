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
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/core"
	"github.com/grid-pilot/stager/webclient"
)

// This mover serves sites whose storage is visible on the local filesystem.
// Stage-in asks the storage's WebDAV frontend for the file's etag, which
// encodes the physical location, and symlinks it into place instead of
// copying bytes. Stage-out is a local move.
type stormMover struct {
	endpoints map[string]config.EndpointConfig
}

func newStormMover(endpoints map[string]config.EndpointConfig) *stormMover {
	return &stormMover{endpoints: endpoints}
}

func (m *stormMover) Name() string {
	return "storm"
}

func (m *stormMover) Schemes() []string {
	return []string{"file", "srm", "root", "https", "gsiftp"}
}

// the PROPFIND response elements we care about
type davMultistatus struct {
	Responses []struct {
		Etag string `xml:"propstat>prop>getetag"`
	} `xml:"response"`
}

// StageIn resolves the file's physical path from its WebDAV etag and
// symlinks it to dst.
func (m *stormMover) StageIn(ctx context.Context, dst string, spec *core.FileSpec) (core.StageResult, error) {
	if len(spec.Replicas) == 0 || len(spec.Replicas[0].Pfns) == 0 {
		return core.StageResult{}, &StageInError{
			Did:    spec.Did(),
			Output: "no replica locations were resolved for a replica-requiring mover",
		}
	}
	location := spec.Replicas[0].Pfns[0]

	target, err := m.physicalPath(ctx, location, spec)
	if err != nil {
		slog.Error(fmt.Sprintf("storm: %s", err))
		return core.StageResult{}, err
	}

	slog.Info(fmt.Sprintf("storm: linking %s to %s", target, dst))
	if err := os.Symlink(target, dst); err != nil {
		slog.Error(fmt.Sprintf("storm: couldn't create symlink for %s: %s", spec.Did(), err))
		return core.StageResult{}, &StageInError{Did: spec.Did(), Output: err.Error()}
	}

	if err := m.fillLocalMetadata(dst, spec); err != nil {
		return core.StageResult{}, &StageInError{Did: spec.Did(), Output: err.Error()}
	}
	return core.StageResult{Endpoint: spec.Replicas[0].Endpoint, PhysicalName: spec.Lfn}, nil
}

// StageOut moves the local file to its destination path on the mounted
// storage.
func (m *stormMover) StageOut(ctx context.Context, src string, spec *core.FileSpec) (core.StageResult, error) {
	dst := strings.TrimPrefix(spec.Turl, "file://")
	if dst == "" {
		return core.StageResult{}, &StageOutError{
			Did:    spec.Did(),
			Output: "no destination path was resolved for a local-move stage-out",
		}
	}
	// only locally mounted destinations can be moved into place
	if !strings.HasPrefix(dst, "/") {
		return core.StageResult{}, &StageOutError{
			Did:    spec.Did(),
			Output: fmt.Sprintf("destination %q is not on a locally mounted filesystem", spec.Turl),
		}
	}

	if err := m.fillLocalMetadata(src, spec); err != nil {
		return core.StageResult{}, &StageOutError{Did: spec.Did(), Output: err.Error()}
	}

	slog.Info(fmt.Sprintf("storm: moving %s to %s", src, dst))
	if err := os.Rename(src, dst); err != nil {
		slog.Error(fmt.Sprintf("storm: couldn't move %s into place: %s", spec.Did(), err))
		return core.StageResult{}, &StageOutError{Did: spec.Did(), Output: err.Error()}
	}

	return core.StageResult{
		Endpoint:     spec.DdmEndpoint,
		StorageURL:   spec.Surl,
		PhysicalName: spec.Lfn,
	}, nil
}

// This helper retrieves the file's etag over WebDAV and derives the physical
// path from it. The etag is the physical path with quotation marks and a
// trailing timestamp attached; the logical file name is the only reliable
// split point, since the path itself may contain underscores.
func (m *stormMover) physicalPath(ctx context.Context, location string, spec *core.FileSpec) (string, error) {
	timeout := time.Duration(config.Service.MetadataTimeout) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "PROPFIND", location, nil)
	if err != nil {
		return "", &MetadataLookupError{Did: spec.Did(), Message: err.Error()}
	}
	req.Header.Set("Depth", "0")

	client := webclient.SecureHttpClient(timeout)
	resp, err := client.Do(req)
	if err != nil {
		return "", &MetadataLookupError{Did: spec.Did(), Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &MetadataLookupError{Did: spec.Did(), Message: err.Error()}
	}

	etag, err := parseEtag(body)
	if err != nil {
		return "", &MetadataLookupError{Did: spec.Did(), Message: err.Error()}
	}
	index := strings.Index(etag, spec.Lfn)
	if index < 0 {
		return "", &MetadataLookupError{
			Did:     spec.Did(),
			Message: fmt.Sprintf("etag %q does not contain the file name", etag),
		}
	}
	return etag[:index] + spec.Lfn, nil
}

// This helper extracts the etag value from a PROPFIND response body.
func parseEtag(body []byte) (string, error) {
	var status davMultistatus
	if err := xml.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("unparseable PROPFIND response: %s", err)
	}
	for _, response := range status.Responses {
		if response.Etag != "" {
			return strings.ReplaceAll(response.Etag, `"`, ""), nil
		}
	}
	return "", fmt.Errorf("PROPFIND response carries no etag")
}

// This helper fills in the spec's checksum and size from the local file
// when they aren't known yet.
func (m *stormMover) fillLocalMetadata(path string, spec *core.FileSpec) error {
	if spec.Filesize == 0 {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		spec.Filesize = info.Size()
	}
	if spec.Checksum == "" {
		checksum, err := core.Adler32(path)
		if err != nil {
			return err
		}
		spec.Checksum = checksum
		spec.ChecksumType = core.Adler32Type
	}
	return nil
}
