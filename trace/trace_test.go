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

package trace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/grid-pilot/stager/config"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)
	report := New(EventGet)
	assert.Equal(EventGet, report.EventType)
	assert.NotEqual(uuid.Nil, report.Id)
	assert.Greater(report.RelativeStart, int64(0))
}

func TestCommandArgs(t *testing.T) {
	assert := assert.New(t)

	report := &Report{
		AppId:     "12345",
		Dataset:   "data17_13TeV.00325000",
		Scope:     "data17_13TeV",
		EventType: EventPut,
		PQ:        "SITE_A_QUEUE",
		TaskId:    "67890",
		UsrDN:     "/DC=org/CN=someone",
	}
	assert.Equal([]string{
		"--trace_appid", "12345",
		"--trace_dataset", "data17_13TeV.00325000",
		"--trace_datasetscope", "data17_13TeV",
		"--trace_eventtype", EventPut,
		"--trace_pq", "SITE_A_QUEUE",
		"--trace_taskid", "67890",
		"--trace_usrdn", "/DC=org/CN=someone",
	}, report.CommandArgs())

	// empty fields stay out of the command line
	sparse := &Report{EventType: EventGet}
	assert.Equal([]string{"--trace_eventtype", EventGet}, sparse.CommandArgs())
}

func TestSendWithoutService(t *testing.T) {
	saved := config.Trace
	defer func() { config.Trace = saved }()
	config.Trace.URL = ""

	assert.Nil(t, New(EventGet).Send(context.Background()))
}

func TestContextRoundTrip(t *testing.T) {
	assert := assert.New(t)

	report := New(EventPut)
	ctx := NewContext(context.Background(), report)
	assert.Same(report, FromContext(ctx))
	assert.Nil(FromContext(context.Background()))
}
