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

package webclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/StalkR/hsts"
)

// grid services sit behind load balancers that may bounce a request a few
// times, but a longer chain indicates a misconfigured endpoint
const maxRedirects = 3

// SecureHttpClient returns the HTTP client used to talk to the grid's
// auxiliary services: the queue catalog, the key service, the tracing
// service and storage metadata queries. Secure redirects are followed up
// to maxRedirects; a redirect downgrading to plain HTTP fails the request.
// HSTS is enforced on the transport.
func SecureHttpClient(timeout time.Duration) http.Client {
	client := http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
	}
	client.Transport = hsts.New(client.Transport) // enable HSTS
	return client
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme == "http" {
		return &DowngradedRedirectError{
			Endpoint: fmt.Sprintf("%s%s", req.URL.Host, req.URL.Path),
		}
	}
	if len(via) >= maxRedirects {
		return &RedirectLimitError{
			Endpoint: fmt.Sprintf("%s%s", req.URL.Host, req.URL.Path),
			Limit:    maxRedirects,
		}
	}
	return nil
}
