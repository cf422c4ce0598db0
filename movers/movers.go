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

// Package movers implements the protocol-specific transfer mechanisms. Every
// mover follows the same two-stage shape: an external command-line transfer
// first, an in-process client library second, and a single terminal staging
// error when both fail.
package movers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/core"
	"github.com/grid-pilot/stager/shell"
)

// hard ceiling on any single transfer command
const timeoutMax = 3*time.Hour + 5*time.Second

// A Mover stages individual files in and out of a storage endpoint. For
// stage-in, dst is the flat destination path the file must end up at; for
// stage-out, src is the local path of the file to upload. Implementations
// populate the spec's checksum and size fields on success.
type Mover interface {
	// short protocol name the mover is selected by
	Name() string
	// URL schemes the mover can speak
	Schemes() []string
	StageIn(ctx context.Context, dst string, spec *core.FileSpec) (core.StageResult, error)
	StageOut(ctx context.Context, src string, spec *core.FileSpec) (core.StageResult, error)
}

// A Registry holds the closed set of movers available to a queue, keyed by
// protocol name. Built once at startup; read-only afterwards.
type Registry struct {
	queue     *config.QueueConfig
	endpoints map[string]config.EndpointConfig
	movers    map[string]Mover
}

// NewRegistry creates a registry holding the built-in movers for the given
// queue and endpoint table.
func NewRegistry(queue *config.QueueConfig, endpoints map[string]config.EndpointConfig) *Registry {
	registry := &Registry{
		queue:     queue,
		endpoints: endpoints,
		movers:    make(map[string]Mover),
	}
	registry.Register(newRucioMover(endpoints))
	registry.Register(newStormMover(endpoints))
	return registry
}

// Register adds a mover to the registry, replacing any previous mover
// registered under the same name.
func (r *Registry) Register(m Mover) {
	r.movers[m.Name()] = m
}

// Lookup returns the mover registered under the given protocol name.
func (r *Registry) Lookup(name string) (Mover, error) {
	mover, found := r.movers[name]
	if !found {
		return nil, &UnknownMoverError{Name: name}
	}
	return mover, nil
}

// StageInMover returns the mover selected by the queue's stage-in tool. A
// queue without a dedicated stage-in tool uses its copytool for both
// directions.
func (r *Registry) StageInMover() (Mover, error) {
	return r.Lookup(r.queue.StageInTool())
}

// StageOutMover returns the mover selected by the queue's copytool.
func (r *Registry) StageOutMover() (Mover, error) {
	return r.Lookup(r.queue.Copytool)
}

// This helper reports whether the named endpoint computes physical paths
// from logical names alone. Unknown endpoints count as non-deterministic.
func isDeterministic(endpoints map[string]config.EndpointConfig, name string) bool {
	return endpoints[name].Deterministic
}

// This helper computes the wall-clock budget for one transfer command,
// scaling the configured minimum with the file size (roughly 0.5 MB/s)
// up to a fixed ceiling.
func timeoutFor(filesize int64) time.Duration {
	timeout := time.Duration(config.Service.TransferTimeout)*time.Second +
		time.Duration(filesize/500000)*time.Second
	if timeout > timeoutMax {
		return timeoutMax
	}
	return timeout
}

// This helper runs one transfer through the shared two-stage machine: the
// external command first, the in-process fallback on any non-zero exit or
// execution failure. The returned error is nil when either stage succeeds;
// otherwise it carries the diagnostic text of the failed stages verbatim,
// for the caller to wrap in its staging error kind. The fallback is invoked
// at most once and never retried.
func runWithFallback(ctx context.Context, mover, did string, timeout time.Duration,
	command []string, fallback func() error) error {
	status, output, err := shell.Run(ctx, timeout, command[0], command[1:]...)
	if status == 0 && err == nil {
		return nil
	}
	cause := output
	if cause == "" && err != nil {
		cause = err.Error()
	}
	slog.Warn(fmt.Sprintf("%s: external transfer command for %s failed with status %d, trying the client library: %s",
		mover, did, status, cause))

	if fbErr := fallback(); fbErr != nil {
		slog.Error(fmt.Sprintf("%s: client library transfer of %s failed too: %s", mover, did, fbErr))
		if cause == "" {
			return fbErr
		}
		return fmt.Errorf("%s; fallback: %s", cause, fbErr)
	}
	return nil
}
