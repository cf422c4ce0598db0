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

// Package tiers classifies sites into the grid's tier hierarchy and resolves
// the Tier-1 queue that serves as a cloud's alternative stage-out target.
package tiers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/grid-pilot/stager/catalog"
	"github.com/grid-pilot/stager/config"
)

// The cloud name whose Tier-1 must be recovered from a storage endpoint's
// space token rather than from the tier table.
const worldCloud = "WORLD"

// prefix marking the destination endpoint inside a WORLD space token
const destinationPrefix = "dst:"

// A Registry answers tier-membership questions against the configured tier
// table and, for alternative stage-out, the live queue catalog.
type Registry struct {
	// cloud name -> [Tier-1 site, backup queue...]
	table   map[string][]string
	catalog *catalog.Client
}

// NewRegistry creates a registry over the configured tier table.
func NewRegistry(cat *catalog.Client) *Registry {
	return &Registry{table: config.Tiers, catalog: cat}
}

// IsTier1 reports whether the given site is a Tier-1 site or one of its
// backup queues in any cloud.
func (r *Registry) IsTier1(site string) bool {
	for _, entries := range r.table {
		for _, entry := range entries {
			if entry != "" && entry == site {
				return true
			}
		}
	}
	return false
}

// IsTier3 reports whether the given queue is a local (Tier-3) queue, i.e.
// one whose storage is not grid-managed.
func (r *Registry) IsTier3(q *config.QueueConfig) bool {
	return q.Ddm == "local"
}

// IsTier2 reports whether the given site is a Tier-2 site: neither a Tier-1
// site nor a local queue.
func (r *Registry) IsTier2(site string, q *config.QueueConfig) bool {
	return !r.IsTier1(site) && !r.IsTier3(q)
}

// Tier1Site returns the Tier-1 site of the given cloud, or "" when the cloud
// is unknown or has no Tier-1.
func (r *Registry) Tier1Site(cloud string) string {
	entries := r.table[cloud]
	if len(entries) == 0 {
		return ""
	}
	return entries[0]
}

// ResolveTier1Queue resolves the processing queue associated with the Tier-1
// site of the given cloud, the queue alternative stage-out is directed at.
// For the WORLD cloud the tier table has no entry, so the real cloud is
// first recovered from the destination endpoint named in the space token.
// An empty queue name with a nil error means no alternative exists.
func (r *Registry) ResolveTier1Queue(cloud, spaceToken string) (string, error) {
	queues, err := r.catalog.Queues()
	if err != nil {
		return "", &CatalogUnavailableError{Cloud: cloud, Message: err.Error()}
	}

	if cloud == worldCloud {
		if !strings.HasPrefix(spaceToken, destinationPrefix) {
			slog.Warn(fmt.Sprintf("Space token %q carries no destination endpoint, can't resolve a Tier-1 queue for the %s cloud",
				spaceToken, worldCloud))
			return "", nil
		}
		endpoint := strings.TrimPrefix(spaceToken, destinationPrefix)
		cloud = ""
		for _, q := range queues {
			if q.HasEndpoint(endpoint) {
				cloud = q.Cloud
				break
			}
		}
		if cloud == "" {
			slog.Warn(fmt.Sprintf("No queue in the catalog serves endpoint %s, can't resolve a Tier-1 queue", endpoint))
			return "", nil
		}
	}

	site := r.Tier1Site(cloud)
	if site == "" {
		slog.Warn(fmt.Sprintf("Cloud %s has no Tier-1 site in the tier table", cloud))
		return "", nil
	}
	for name, q := range queues {
		if q.PandaResource == site {
			return name, nil
		}
	}
	slog.Warn(fmt.Sprintf("No queue in the catalog belongs to Tier-1 site %s", site))
	return "", nil
}
