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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDid(t *testing.T) {
	spec := FileSpec{Scope: "data17_13TeV", Lfn: "file1.root"}
	assert.Equal(t, "data17_13TeV:file1.root", spec.Did())
}

func TestIsContainerFile(t *testing.T) {
	assert := assert.New(t)
	assert.True((&FileSpec{Lfn: "file1.root"}).IsContainerFile())
	assert.True((&FileSpec{Lfn: "EVNT.01234._000001.pool.root.1"}).IsContainerFile())
	assert.False((&FileSpec{Lfn: "log.tgz"}).IsContainerFile())
	assert.False((&FileSpec{}).IsContainerFile())
}

func TestJobKind(t *testing.T) {
	assert := assert.New(t)
	assert.True(AnalysisJob.Analysis())
	assert.False(ProductionJob.Analysis())
}

func TestAdler32(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "checksum.txt")
	assert.Nil(os.WriteFile(path, []byte("Wikipedia"), 0644))

	checksum, err := Adler32(path)
	assert.Nil(err)
	assert.Equal("11e60398", checksum)

	// leading zeros are preserved in the 8-digit form
	assert.Nil(os.WriteFile(path, nil, 0644))
	checksum, err = Adler32(path)
	assert.Nil(err)
	assert.Equal("00000001", checksum)

	_, err = Adler32(filepath.Join(t.TempDir(), "missing.txt"))
	assert.NotNil(err)
}
