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

package paths

import (
	"crypto/md5"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/core"
)

// the fixed capability-root segment of content-addressed storage namespaces
const rucioPrefix = "rucio"

// The resolved physical location of a file at a storage endpoint.
type Resolved struct {
	// full storage URL the transfer targets
	SURL string
	// in-storage physical path (without the endpoint root)
	PhysicalPath string
	// catalog directory the file is registered under; a prefix of
	// PhysicalPath
	CatalogDir string
}

// Resolve computes the physical location of a file at the active queue's
// storage for the given space token. The alternate flag selects the
// alternate storage root and destination used for Tier-2 -> Tier-1
// failover. Pure apart from logging.
func Resolve(q *config.QueueConfig, spec *core.FileSpec, analysis bool, token string, alt bool) (Resolved, error) {
	se := q.StorageRoot(token, alt)

	// For production jobs, the destination is stored in the token's prodpath;
	// for analysis jobs, in its path.
	destination := q.Destination(analysis, token, alt)
	if destination == "" {
		err := DestinationUndefinedError{Queue: q.Name, Token: token}
		slog.Warn(err.Error())
		return Resolved{}, err
	}
	slog.Debug(fmt.Sprintf("Storing %s at: %s", spec.Did(), destination))

	var resolved Resolved
	if strings.Contains(destination, "/"+rucioPrefix) {
		// content-addressed namespace: delegate full-path construction to the
		// rucio builder
		resolved.SURL = SURLRucio(se, destination, spec.Scope, spec.Lfn)
		prefix := rucioPrefix
		if strings.HasSuffix(strings.TrimRight(destination, "/"), "/"+rucioPrefix) {
			prefix = "" // avoid a double prefix
		}
		resolved.PhysicalPath = path.Join(destination, RucioPath(spec.Scope, spec.Lfn, prefix))
	} else {
		resolved.PhysicalPath = path.Join(destination, spec.Scope, spec.Lfn)
		surl := se + resolved.PhysicalPath

		// Correct a SURL which might start with something like
		// 'token:ATLASMCTAPE:srm://srm.example:8443/...': the space-token
		// prefix is a legacy decoration, not part of the URL.
		if strings.HasPrefix(surl, "token:") {
			slog.Info("Removing space token part from SURL")
			surl = StripTokenPrefix(surl)
		}
		resolved.SURL = surl
	}
	resolved.CatalogDir = path.Dir(resolved.PhysicalPath)

	slog.Debug(fmt.Sprintf("SURL = %s", resolved.SURL))
	slog.Debug(fmt.Sprintf("physical path = %s", resolved.PhysicalPath))
	slog.Debug(fmt.Sprintf("catalog dir = %s", resolved.CatalogDir))
	return resolved, nil
}

// RucioPath constructs the partial content-addressed physical path for a
// file: <prefix>/<scope parts>/<md5[0:2]>/<md5[2:4]>/<lfn>, where the digest
// is md5("<scope>:<lfn>").
func RucioPath(scope, lfn, prefix string) string {
	digest := fmt.Sprintf("%x", md5.Sum([]byte(scope+":"+lfn)))

	parts := []string{prefix}
	parts = append(parts, strings.Split(scope, ".")...)
	parts = append(parts, digest[0:2], digest[2:4], lfn)

	// drop empty parts to avoid double /-chars
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}

// SURLRucio builds the full destination storage URL for a file in a
// content-addressed namespace.
func SURLRucio(se, sePath, scope, lfn string) string {
	prefix := rucioPrefix
	if strings.HasSuffix(strings.TrimRight(sePath, "/"), "/"+rucioPrefix) {
		prefix = "" // avoid a double prefix
	}
	return se + path.Join(sePath, RucioPath(scope, lfn, prefix))
}

// StripTokenPrefix removes a leading space-token decoration of the form
// "token:<NAME>:<url>" from a storage URL. URLs without the decoration are
// returned unchanged.
func StripTokenPrefix(surl string) string {
	if !strings.HasPrefix(surl, "token:") {
		return surl
	}
	parts := strings.SplitN(surl, ":", 3)
	if len(parts) < 3 {
		return surl
	}
	return parts[2]
}
