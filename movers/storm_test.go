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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/core"
)

const propfindResponse = `<?xml version="1.0" encoding="UTF-8"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/atlas/data17/file1.root</d:href>
    <d:propstat>
      <d:prop>
        <d:getetag>"/storage/atlas/data17/file1.root_1503329600"</d:getetag>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestParseEtag(t *testing.T) {
	assert := assert.New(t)

	etag, err := parseEtag([]byte(propfindResponse))
	assert.Nil(err)
	assert.Equal("/storage/atlas/data17/file1.root_1503329600", etag)

	_, err = parseEtag([]byte("<d:multistatus xmlns:d=\"DAV:\"></d:multistatus>"))
	assert.NotNil(err)
	_, err = parseEtag([]byte("not xml"))
	assert.NotNil(err)
}

func TestStormStageInRequiresReplicas(t *testing.T) {
	assert := assert.New(t)
	mover := newStormMover(config.Endpoints)

	spec := &core.FileSpec{Scope: "data17", Lfn: "file1.root", DdmEndpoint: "SITE_A_DATADISK"}
	_, err := mover.StageIn(context.Background(), "/tmp/stager-test/file1.root", spec)
	var stageIn *StageInError
	assert.ErrorAs(err, &stageIn)
}

func TestStormStageOut(t *testing.T) {
	assert := assert.New(t)
	mover := newStormMover(config.Endpoints)

	dir := t.TempDir()
	src := filepath.Join(dir, "out1.pool.root")
	assert.Nil(os.WriteFile(src, []byte("event data"), 0644))
	dst := filepath.Join(dir, "storage", "out1.pool.root")
	assert.Nil(os.MkdirAll(filepath.Dir(dst), 0755))

	spec := &core.FileSpec{
		Scope:       "data17",
		Lfn:         "out1.pool.root",
		DdmEndpoint: "SITE_A_DATADISK",
		Turl:        "file://" + dst,
		Surl:        "srm://srm.site-a.example/storage/out1.pool.root",
	}
	result, err := mover.StageOut(context.Background(), src, spec)
	assert.Nil(err)
	assert.Equal("SITE_A_DATADISK", result.Endpoint)
	assert.Equal(spec.Surl, result.StorageURL)
	assert.Equal("out1.pool.root", result.PhysicalName)

	// the file was moved, and its metadata was captured before the move
	_, err = os.Stat(src)
	assert.True(os.IsNotExist(err))
	content, err := os.ReadFile(dst)
	assert.Nil(err)
	assert.Equal("event data", string(content))
	assert.Equal(int64(len("event data")), spec.Filesize)
	assert.Equal(core.Adler32Type, spec.ChecksumType)
	assert.NotEmpty(spec.Checksum)
}

func TestStormStageOutWithoutDestination(t *testing.T) {
	assert := assert.New(t)
	mover := newStormMover(config.Endpoints)

	spec := &core.FileSpec{Scope: "data17", Lfn: "out1.pool.root"}
	_, err := mover.StageOut(context.Background(), "/tmp/stager-test/out1.pool.root", spec)
	var stageOut *StageOutError
	assert.ErrorAs(err, &stageOut)
}

func TestStormStageOutRejectsRemoteDestination(t *testing.T) {
	assert := assert.New(t)
	mover := newStormMover(config.Endpoints)

	// a remote transfer URL cannot be moved into place locally
	spec := &core.FileSpec{
		Scope: "data17", Lfn: "out1.pool.root",
		Turl: "srm://srm.site-a.example:8443/storage/out1.pool.root",
	}
	_, err := mover.StageOut(context.Background(), "/tmp/stager-test/out1.pool.root", spec)
	var stageOut *StageOutError
	assert.ErrorAs(err, &stageOut)
	assert.Contains(stageOut.Output, "srm://srm.site-a.example")
	assert.Contains(stageOut.Output, "locally mounted")
}
