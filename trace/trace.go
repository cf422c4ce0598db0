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

// Package trace builds per-transfer trace reports and delivers them to the
// tracing service that monitors grid-wide data movement.
package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/grid-pilot/stager/config"
	"github.com/grid-pilot/stager/webclient"
)

// transfer event types reported to the tracing service
const (
	EventGet = "get_sm"
	EventPut = "put_sm"
)

// A Report describes one transfer to the tracing service.
type Report struct {
	Id            uuid.UUID `json:"uuid"`
	AppId         string    `json:"appid,omitempty"`
	Dataset       string    `json:"dataset,omitempty"`
	Scope         string    `json:"scope,omitempty"`
	EventType     string    `json:"eventType"`
	PQ            string    `json:"pq,omitempty"`
	TaskId        string    `json:"taskid,omitempty"`
	UsrDN         string    `json:"usrdn,omitempty"`
	RelativeStart int64     `json:"relativeStart,omitempty"`
	TransferStart int64     `json:"transferStart,omitempty"`
	ValidateStart int64     `json:"validateStart,omitempty"`
	ClientState   string    `json:"clientState,omitempty"`
}

// New creates a trace report for the given event type, stamped with a fresh
// identifier and the current time as the relative start.
func New(eventType string) *Report {
	return &Report{
		Id:            uuid.New(),
		EventType:     eventType,
		RelativeStart: time.Now().Unix(),
	}
}

// CommandArgs renders the report as the command-line flags understood by the
// external transfer tool, so the tool's own tracing carries the same
// identifiers. Empty fields are left out.
func (r *Report) CommandArgs() []string {
	flags := []struct{ name, value string }{
		{"--trace_appid", r.AppId},
		{"--trace_dataset", r.Dataset},
		{"--trace_datasetscope", r.Scope},
		{"--trace_eventtype", r.EventType},
		{"--trace_pq", r.PQ},
		{"--trace_taskid", r.TaskId},
		{"--trace_usrdn", r.UsrDN},
	}
	var args []string
	for _, flag := range flags {
		if flag.value != "" {
			args = append(args, flag.name, flag.value)
		}
	}
	return args
}

// Send delivers the report to the configured tracing service. Delivery is
// best effort: when no service is configured the report is dropped silently.
func (r *Report) Send(ctx context.Context) error {
	if config.Trace.URL == "" {
		return nil
	}

	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.Trace.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := webclient.SecureHttpClient(30 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("tracing service responded with %s", resp.Status)
	}
	slog.Debug(fmt.Sprintf("Delivered trace report %s (%s)", r.Id, r.EventType))
	return nil
}
