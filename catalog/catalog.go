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

// Package catalog fetches and caches the site-wide queue catalog, the
// directory of every processing queue's site, cloud and storage endpoints.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jellydator/ttlcache/v2"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/webclient"
)

// key under which the full queue table is memoized
const snapshotKey = "queues"

// A Queue is one processing queue's entry in the catalog.
type Queue struct {
	// site the queue belongs to
	PandaResource string `json:"panda_resource"`
	// cloud (region) the site is assigned to
	Cloud string `json:"cloud"`
	// comma-separated storage endpoints associated with the queue
	Ddm string `json:"ddm"`
	// free-text directive string
	Catchall string `json:"catchall"`
}

// HasEndpoint reports whether the given storage endpoint is one of the
// queue's associated endpoints.
func (q Queue) HasEndpoint(ddm string) bool {
	for _, entry := range strings.Split(q.Ddm, ",") {
		if strings.TrimSpace(entry) == ddm {
			return true
		}
	}
	return false
}

// A Client fetches the queue catalog lazily and caches it at two levels: an
// in-memory snapshot with a TTL, and a file on disk that survives process
// restarts and network outages.
type Client struct {
	url       string
	cacheFile string
	snapshot  *ttlcache.Cache
	client    http.Client
}

// NewClient creates a catalog client from the loaded configuration.
func NewClient() *Client {
	snapshot := ttlcache.NewCache()
	snapshot.SetTTL(time.Duration(config.Catalog.TTL) * time.Second)
	return &Client{
		url:       config.Catalog.URL,
		cacheFile: config.Catalog.CacheFile,
		snapshot:  snapshot,
		client:    webclient.SecureHttpClient(30 * time.Second),
	}
}

// Queues returns the full queue table, keyed by queue name. The catalog is
// fetched at most once per TTL window; when the service is unreachable the
// last snapshot written to disk is used instead.
func (c *Client) Queues() (map[string]Queue, error) {
	if cached, err := c.snapshot.Get(snapshotKey); err == nil {
		return cached.(map[string]Queue), nil
	}

	data, err := c.fetch()
	if err != nil {
		slog.Warn(fmt.Sprintf("Couldn't fetch the queue catalog from %s: %s (falling back to cached copy)",
			c.url, err))
		data, err = os.ReadFile(c.cacheFile)
		if err != nil {
			return nil, &FetchError{URL: c.url, Message: err.Error()}
		}
	}

	var queues map[string]Queue
	if err := json.Unmarshal(data, &queues); err != nil {
		return nil, &FetchError{URL: c.url, Message: err.Error()}
	}
	c.snapshot.Set(snapshotKey, queues)
	return queues, nil
}

// This helper fetches the catalog over HTTP with a few retries and refreshes
// the on-disk cache on success.
func (c *Client) fetch() ([]byte, error) {
	if c.url == "" {
		return nil, fmt.Errorf("no catalog URL configured")
	}
	var data []byte
	fetch := func() error {
		resp, err := c.client.Get(c.url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("catalog service responded with %s", resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		return err
	}
	err := backoff.Retry(fetch, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
	if err != nil {
		return nil, err
	}
	if c.cacheFile != "" {
		if err := os.WriteFile(c.cacheFile, data, 0644); err != nil {
			slog.Warn(fmt.Sprintf("Couldn't refresh the catalog cache file %s: %s", c.cacheFile, err))
		}
	}
	return data, nil
}
