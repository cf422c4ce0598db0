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

package tiers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grid-pilot/stager/catalog"
	"github.com/grid-pilot/stager/config"
)

const queueTable = `{
  "CERN-PROD_TEST": {
    "panda_resource": "CERN-PROD",
    "cloud": "CERN",
    "ddm": "CERN-PROD_DATADISK",
    "catchall": ""
  },
  "TRIUMF_PROD": {
    "panda_resource": "TRIUMF",
    "cloud": "CA",
    "ddm": "TRIUMF_DATADISK",
    "catchall": ""
  },
  "SITE_B_QUEUE": {
    "panda_resource": "SITE-B",
    "cloud": "CA",
    "ddm": "SITE_B_DATADISK",
    "catchall": ""
  }
}`

// builds a registry over the default tier table and a catalog client that
// reads the table above from a local cache file
func testRegistry(t *testing.T) *Registry {
	cacheFile := filepath.Join(t.TempDir(), "queues.json")
	err := os.WriteFile(cacheFile, []byte(queueTable), 0644)
	assert.Nil(t, err)

	config.Tiers = config.DefaultTiers()
	config.Catalog.URL = ""
	config.Catalog.CacheFile = cacheFile
	config.Catalog.TTL = 60
	return NewRegistry(catalog.NewClient())
}

func TestTierMembership(t *testing.T) {
	assert := assert.New(t)
	registry := testRegistry(t)

	assert.True(registry.IsTier1("TRIUMF"))
	assert.True(registry.IsTier1("CERN-PROD"))
	assert.True(registry.IsTier1("BNL_PROD-condor")) // backup queue counts
	assert.False(registry.IsTier1("SITE-B"))

	local := &config.QueueConfig{Name: "LOCAL_Q", Ddm: "local"}
	grid := &config.QueueConfig{Name: "GRID_Q", Ddm: "SITE_B_DATADISK"}
	assert.True(registry.IsTier3(local))
	assert.False(registry.IsTier3(grid))

	assert.True(registry.IsTier2("SITE-B", grid))
	assert.False(registry.IsTier2("SITE-B", local))
	assert.False(registry.IsTier2("TRIUMF", grid))
}

func TestTier1Site(t *testing.T) {
	assert := assert.New(t)
	registry := testRegistry(t)

	assert.Equal("TRIUMF", registry.Tier1Site("CA"))
	assert.Equal("CERN-PROD", registry.Tier1Site("CERN"))
	assert.Equal("", registry.Tier1Site("NOWHERE"))
}

func TestResolveTier1Queue(t *testing.T) {
	assert := assert.New(t)
	registry := testRegistry(t)

	// a regular cloud resolves straight through the tier table
	queue, err := registry.ResolveTier1Queue("CERN", "ATLASDATADISK")
	assert.Nil(err)
	assert.Equal("CERN-PROD_TEST", queue)

	// a cloud whose Tier-1 has no catalog entry resolves to nothing
	queue, err = registry.ResolveTier1Queue("DE", "ATLASDATADISK")
	assert.Nil(err)
	assert.Equal("", queue)
}

func TestResolveTier1QueueWorldCloud(t *testing.T) {
	assert := assert.New(t)
	registry := testRegistry(t)

	// the cloud is recovered from the endpoint named in the space token
	queue, err := registry.ResolveTier1Queue("WORLD", "dst:SITE_B_DATADISK")
	assert.Nil(err)
	assert.Equal("TRIUMF_PROD", queue)

	// a WORLD token without a destination prefix can't be resolved
	queue, err = registry.ResolveTier1Queue("WORLD", "ATLASDATADISK")
	assert.Nil(err)
	assert.Equal("", queue)

	// an endpoint no queue serves can't be resolved either
	queue, err = registry.ResolveTier1Queue("WORLD", "dst:UNKNOWN_DISK")
	assert.Nil(err)
	assert.Equal("", queue)
}

func TestResolveTier1QueueCatalogDown(t *testing.T) {
	assert := assert.New(t)
	config.Tiers = config.DefaultTiers()
	config.Catalog.URL = ""
	config.Catalog.CacheFile = filepath.Join(t.TempDir(), "missing.json")
	config.Catalog.TTL = 60
	registry := NewRegistry(catalog.NewClient())

	_, err := registry.ResolveTier1Queue("CERN", "ATLASDATADISK")
	var unavailable *CatalogUnavailableError
	assert.ErrorAs(err, &unavailable)
}
