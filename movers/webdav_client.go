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
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/studio-b12/gowebdav"

	"github.com/grid-pilot/stager/core"
)

// The in-process fallback transfer client. It performs the semantically
// equivalent operation over WebDAV against the same endpoint and path the
// external tool was given; endpoints reachable only through other protocols
// fail honestly rather than pretending to transfer.
type webdavClient struct{}

// download fetches the file into the tool's scope/name layout under dir, so
// the caller's relocation step applies to both mechanisms alike.
func (c *webdavClient) download(ctx context.Context, dir string, spec *core.FileSpec) error {
	location := spec.Turl
	if location == "" && len(spec.Replicas) > 0 && len(spec.Replicas[0].Pfns) > 0 {
		location = spec.Replicas[0].Pfns[0]
	}
	base, path, err := splitDavURL(location)
	if err != nil {
		return err
	}

	reader, err := gowebdav.NewClient(base, "", "").ReadStream(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	downloaded := filepath.Join(dir, spec.Scope, spec.Lfn)
	if err := os.MkdirAll(filepath.Dir(downloaded), 0755); err != nil {
		return err
	}
	file, err := os.Create(downloaded)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, reader)
	return err
}

// upload writes the local file at src to the spec's transfer URL.
func (c *webdavClient) upload(ctx context.Context, src string, spec *core.FileSpec) error {
	base, path, err := splitDavURL(spec.Turl)
	if err != nil {
		return err
	}

	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()
	return gowebdav.NewClient(base, "", "").WriteStream(path, file, 0644)
}

// This helper splits a transfer URL into the client's base URL and the
// path on the server. Only WebDAV-capable schemes are usable; the davs
// scheme is plain HTTPS wearing the grid's name for it.
func splitDavURL(location string) (string, string, error) {
	if location == "" {
		return "", "", fmt.Errorf("no transfer URL to fall back on")
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("unusable transfer URL %q: %s", location, err)
	}
	switch parsed.Scheme {
	case "davs":
		parsed.Scheme = "https"
	case "https", "http":
	default:
		return "", "", fmt.Errorf("no client library speaks %q (transfer URL %s)", parsed.Scheme, location)
	}
	base := parsed.Scheme + "://" + parsed.Host
	return base, parsed.Path, nil
}
