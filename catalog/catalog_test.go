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

package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/stretchr/testify/assert"
)

const queueTable = `{
  "CERN-PROD_TEST": {
    "panda_resource": "CERN-PROD",
    "cloud": "CERN",
    "ddm": "CERN-PROD_DATADISK,CERN-PROD_SCRATCHDISK",
    "catchall": "allow_alt_stageout"
  },
  "SITE_B_QUEUE": {
    "panda_resource": "SITE-B",
    "cloud": "DE",
    "ddm": "SITE_B_DATADISK",
    "catchall": ""
  }
}`

// a client wired to a cache file only, so no network is involved
func fileOnlyClient(t *testing.T, table string) *Client {
	cacheFile := filepath.Join(t.TempDir(), "queues.json")
	err := os.WriteFile(cacheFile, []byte(table), 0644)
	assert.Nil(t, err)
	snapshot := ttlcache.NewCache()
	snapshot.SetTTL(time.Minute)
	return &Client{
		url:       "",
		cacheFile: cacheFile,
		snapshot:  snapshot,
	}
}

func TestQueuesFromCacheFile(t *testing.T) {
	assert := assert.New(t)
	client := fileOnlyClient(t, queueTable)

	queues, err := client.Queues()
	assert.Nil(err)
	assert.Equal(2, len(queues))
	assert.Equal("CERN-PROD", queues["CERN-PROD_TEST"].PandaResource)
	assert.Equal("DE", queues["SITE_B_QUEUE"].Cloud)

	// second call is served from the in-memory snapshot
	again, err := client.Queues()
	assert.Nil(err)
	assert.Equal(queues, again)
}

func TestQueuesUnavailable(t *testing.T) {
	assert := assert.New(t)
	snapshot := ttlcache.NewCache()
	snapshot.SetTTL(time.Minute)
	client := &Client{
		url:       "",
		cacheFile: filepath.Join(t.TempDir(), "missing.json"),
		snapshot:  snapshot,
	}
	_, err := client.Queues()
	assert.NotNil(err)
	var fetchErr *FetchError
	assert.ErrorAs(err, &fetchErr)
}

func TestQueuesBadPayload(t *testing.T) {
	assert := assert.New(t)
	client := fileOnlyClient(t, "not json at all")
	_, err := client.Queues()
	assert.NotNil(err)
	var fetchErr *FetchError
	assert.ErrorAs(err, &fetchErr)
}

func TestHasEndpoint(t *testing.T) {
	assert := assert.New(t)
	q := Queue{Ddm: "CERN-PROD_DATADISK, CERN-PROD_SCRATCHDISK"}
	assert.True(q.HasEndpoint("CERN-PROD_DATADISK"))
	assert.True(q.HasEndpoint("CERN-PROD_SCRATCHDISK"))
	assert.False(q.HasEndpoint("CERN-PROD"))
	assert.False(Queue{}.HasEndpoint("ANY"))
}
