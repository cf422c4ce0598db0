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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grid-pilot/stager/config"
)

const isolationConfig string = `
service:
  workdir: /tmp/stager-test
queue:
  name: SITE_A_PROD
  site: SITE_A
  copytool: rucio
  tokens: {}
endpoints:
  SITE_A_DATADISK:
    deterministic: true
isolation:
  command: singularity
  image: /cvmfs/images/transfer.sif
  binds:
    - /etc/grid-security
`

func setup() {
	config.Init([]byte(isolationConfig))
}

func TestWrapWithTag(t *testing.T) {
	assert := assert.New(t)
	cmd := []string{"rucio", "download", "data17:file1.root"}
	wrapped := Wrap(cmd, "x86_64-centos7", "/tmp/work")
	assert.Equal([]string{
		"singularity", "exec",
		"-B", "/tmp/work",
		"-B", "/etc/grid-security",
		"/cvmfs/images/transfer.sif",
		"rucio", "download", "data17:file1.root",
	}, wrapped)
}

func TestWrapWithoutTag(t *testing.T) {
	assert := assert.New(t)
	cmd := []string{"rucio", "download", "data17:file1.root"}
	assert.Equal(cmd, Wrap(cmd, "", "/tmp/work"))
}

func TestWrapWithoutImage(t *testing.T) {
	assert := assert.New(t)
	saved := config.Isolation
	defer func() { config.Isolation = saved }()
	config.Isolation.Image = ""
	cmd := []string{"rucio", "download", "data17:file1.root"}
	assert.Equal(cmd, Wrap(cmd, "x86_64-centos7", "/tmp/work"))
}

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}
