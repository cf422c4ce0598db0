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

// Package keys obtains security key pairs from the credential service and
// holds them for the process lifetime.
package keys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/webclient"
)

// A KeyPair holds one security key pair fetched from the credential service.
type KeyPair struct {
	Public  string `json:"publicKey"`
	Private string `json:"privateKey"`
}

// A Cache fetches key pairs on first use and keeps them for the process
// lifetime. Safe for concurrent use. A pair, once stored, is never replaced.
type Cache struct {
	mutex  sync.Mutex
	pairs  map[string]KeyPair
	url    string
	client http.Client
}

// NewCache creates a key-pair cache from the loaded configuration.
func NewCache() *Cache {
	return &Cache{
		pairs:  make(map[string]KeyPair),
		url:    config.Keys.URL,
		client: webclient.SecureHttpClient(30 * time.Second),
	}
}

// Get returns the key pair named by the given private and public key names,
// fetching it from the credential service on first use.
func (c *Cache) Get(ctx context.Context, privateKeyName, publicKeyName string) (KeyPair, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	name := privateKeyName + "_" + publicKeyName
	if pair, found := c.pairs[name]; found {
		return pair, nil
	}

	pair, err := c.fetch(ctx, privateKeyName, publicKeyName)
	if err != nil {
		return KeyPair{}, err
	}
	c.pairs[name] = pair
	return pair, nil
}

// This helper asks the credential service for the named key pair.
func (c *Cache) fetch(ctx context.Context, privateKeyName, publicKeyName string) (KeyPair, error) {
	if c.url == "" {
		return KeyPair{}, &ServiceError{Name: privateKeyName, Message: "no credential service URL configured"}
	}

	body, err := json.Marshal(map[string]string{
		"privateKeyName": privateKeyName,
		"publicKeyName":  publicKeyName,
	})
	if err != nil {
		return KeyPair{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return KeyPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return KeyPair{}, &ServiceError{Name: privateKeyName, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return KeyPair{}, &ServiceError{
			Name:    privateKeyName,
			Message: fmt.Sprintf("credential service responded with %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return KeyPair{}, &ServiceError{Name: privateKeyName, Message: err.Error()}
	}
	var pair KeyPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return KeyPair{}, &ServiceError{Name: privateKeyName, Message: err.Error()}
	}
	if pair.Public == "" || pair.Private == "" {
		return KeyPair{}, &ServiceError{Name: privateKeyName, Message: "incomplete key pair in response"}
	}
	return pair, nil
}
