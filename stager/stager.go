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

// Package stager orchestrates whole stage-in and stage-out requests: it
// resolves paths, selects movers, fans transfers out concurrently, applies
// the failover policy on stage-out failures and records every outcome in
// the journal and the tracing service.
package stager

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/core"
	"github.com/grid-pilot/stager/failover"
	"github.com/grid-pilot/stager/journal"
	"github.com/grid-pilot/stager/movers"
	"github.com/grid-pilot/stager/paths"
	"github.com/grid-pilot/stager/tiers"
	"github.com/grid-pilot/stager/trace"
)

// A Request names the files one staging call moves, the classification of
// the job they belong to, and the storage token the destination is resolved
// under.
type Request struct {
	Files []*core.FileSpec
	Kind  core.JobKind
	Token string
}

// The outcome of one file's stage operation. Err is nil iff the file was
// staged; failures of one file never disturb another's.
type Result struct {
	Spec   *core.FileSpec
	Staged core.StageResult
	Err    error
}

// A Stager moves a job's input and output files between the local working
// directory and the storage federation. All collaborators are passed in at
// construction; a Stager holds no global state.
type Stager struct {
	queue     *config.QueueConfig
	endpoints map[string]config.EndpointConfig
	registry  *movers.Registry
	tiers     *tiers.Registry
	journal   *journal.Journal
	workdir   string
}

// New creates a stager for the given queue. The queue's storage paths are
// normalized once here, so movers and resolvers see corrected values only.
func New(queue *config.QueueConfig, endpoints map[string]config.EndpointConfig,
	registry *movers.Registry, tierRegistry *tiers.Registry, jnl *journal.Journal,
	workdir string) *Stager {
	paths.NormalizeQueuePaths(queue)
	return &Stager{
		queue:     queue,
		endpoints: endpoints,
		registry:  registry,
		tiers:     tierRegistry,
		journal:   jnl,
		workdir:   workdir,
	}
}

// StageIn moves the request's files from the storage federation into the
// working directory, one goroutine per file.
func (s *Stager) StageIn(ctx context.Context, request Request) []Result {
	return s.fanOut(request.Files, func(index int, spec *core.FileSpec) Result {
		return s.stageInOne(ctx, spec)
	})
}

// StageOut moves the request's files from the working directory to their
// destination endpoints, one goroutine per file. Failed transfers are
// retried once against the Tier-1 alternative when the failover policy
// grants one.
func (s *Stager) StageOut(ctx context.Context, request Request) []Result {
	return s.fanOut(request.Files, func(index int, spec *core.FileSpec) Result {
		return s.stageOutOne(ctx, request, spec)
	})
}

// This helper runs one operation per file concurrently and collects the
// results in file order.
func (s *Stager) fanOut(files []*core.FileSpec, operation func(int, *core.FileSpec) Result) []Result {
	results := make([]Result, len(files))
	var wg sync.WaitGroup
	for index, spec := range files {
		wg.Add(1)
		go func(index int, spec *core.FileSpec) {
			defer wg.Done()
			results[index] = operation(index, spec)
		}(index, spec)
	}
	wg.Wait()
	return results
}

// This helper stages in a single file.
func (s *Stager) stageInOne(ctx context.Context, spec *core.FileSpec) Result {
	mover, err := s.registry.StageInMover()
	if err != nil {
		return Result{Spec: spec, Err: err}
	}

	report := trace.New(trace.EventGet)
	report.Scope = spec.Scope
	report.PQ = s.queue.Name
	report.TransferStart = time.Now().Unix()
	ctx = trace.NewContext(ctx, report)

	dst := filepath.Join(s.workdir, spec.Lfn)
	started := time.Now()
	staged, err := mover.StageIn(ctx, dst, spec)
	s.record(ctx, journal.StageIn, spec, mover.Name(), started, err)
	s.finishTrace(ctx, report, err)
	return Result{Spec: spec, Staged: staged, Err: err}
}

// This helper stages out a single file, consulting the failover policy when
// the primary destination fails.
func (s *Stager) stageOutOne(ctx context.Context, request Request, spec *core.FileSpec) Result {
	mover, err := s.registry.StageOutMover()
	if err != nil {
		return Result{Spec: spec, Err: err}
	}

	report := trace.New(trace.EventPut)
	report.Scope = spec.Scope
	report.PQ = s.queue.Name
	report.TransferStart = time.Now().Unix()
	ctx = trace.NewContext(ctx, report)

	decision := failover.Decision{
		AnalysisJob:   request.Kind.Analysis(),
		RequestedMode: s.queue.AltStageOut,
		ObjectStore:   s.endpoints[spec.DdmEndpoint].ObjectStore,
		Catchall:      s.queue.Catchall,
	}

	src := filepath.Join(s.workdir, spec.Lfn)
	started := time.Now()
	var staged core.StageResult
	if failover.ForceAlternateStageOut(decision) {
		staged, err = s.attemptStageOut(ctx, mover, src, spec, request, true)
	} else {
		staged, err = s.attemptStageOut(ctx, mover, src, spec, request, false)
		if err != nil && failover.AllowAlternateStageOut(decision) {
			slog.Warn(fmt.Sprintf("Stage-out of %s to %s failed, trying the alternative storage: %s",
				spec.Did(), spec.DdmEndpoint, err))
			if retried, retryErr := s.attemptStageOut(ctx, mover, src, spec, request, true); retryErr == nil {
				staged, err = retried, nil
			}
		}
	}

	s.record(ctx, journal.StageOut, spec, mover.Name(), started, err)
	s.finishTrace(ctx, report, err)
	return Result{Spec: spec, Staged: staged, Err: err}
}

// This helper performs one stage-out attempt against either the primary or
// the alternate storage root. An alternate attempt requires a resolvable
// Tier-1 queue; an empty queue name means no alternative exists and the
// attempt fails without running any transfer.
func (s *Stager) attemptStageOut(ctx context.Context, mover movers.Mover, src string,
	spec *core.FileSpec, request Request, alternate bool) (core.StageResult, error) {
	if alternate {
		altQueue, err := s.tiers.ResolveTier1Queue(s.queue.Cloud, request.Token)
		if err != nil {
			return core.StageResult{}, err
		}
		if altQueue == "" {
			return core.StageResult{}, &NoFailoverTargetError{Did: spec.Did(), Cloud: s.queue.Cloud}
		}
		slog.Info(fmt.Sprintf("Staging out %s through Tier-1 queue %s", spec.Did(), altQueue))
	}

	resolved, err := paths.Resolve(s.queue, spec, request.Kind.Analysis(), request.Token, alternate)
	if err != nil {
		return core.StageResult{}, err
	}
	spec.Surl = resolved.SURL
	// An alternate attempt targets a different storage, so a transfer URL
	// left over from the primary attempt must not survive it.
	if spec.Turl == "" || alternate {
		spec.Turl = resolved.SURL
	}
	return mover.StageOut(ctx, src, spec)
}

// This helper appends the outcome of one transfer to the journal.
func (s *Stager) record(ctx context.Context, direction string, spec *core.FileSpec,
	mover string, started time.Time, stageErr error) {
	if s.journal == nil {
		return
	}
	record := journal.Record{
		Id:        uuid.New(),
		Direction: direction,
		Scope:     spec.Scope,
		Lfn:       spec.Lfn,
		Endpoint:  spec.DdmEndpoint,
		Mover:     mover,
		Status:    "succeeded",
		Filesize:  spec.Filesize,
		StartTime: started,
		StopTime:  time.Now(),
	}
	if stageErr != nil {
		record.Status = "failed"
		record.Error = stageErr.Error()
	}
	if err := s.journal.Append(record); err != nil {
		slog.Warn(fmt.Sprintf("Couldn't journal the transfer of %s: %s", spec.Did(), err))
	}
}

// This helper stamps the report's final state and delivers it. Trace
// delivery is best effort and never fails the transfer.
func (s *Stager) finishTrace(ctx context.Context, report *trace.Report, stageErr error) {
	report.ValidateStart = time.Now().Unix()
	report.ClientState = "DONE"
	if stageErr != nil {
		report.ClientState = "FAILED"
	}
	if err := report.Send(ctx); err != nil {
		slog.Warn(fmt.Sprintf("Couldn't deliver trace report %s: %s", report.Id, err))
	}
}
