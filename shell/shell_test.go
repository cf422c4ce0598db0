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

package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunCapturesOutput(t *testing.T) {
	assert := assert.New(t)
	status, output, err := Run(context.Background(), 10*time.Second, "echo", "staged")
	assert.Nil(err)
	assert.Equal(0, status)
	assert.Equal("staged\n", output)
}

func TestRunReportsExitStatus(t *testing.T) {
	assert := assert.New(t)
	status, _, err := Run(context.Background(), 10*time.Second, "sh", "-c", "echo oops >&2; exit 3")
	assert.NotNil(err)
	assert.Equal(3, status)
}

func TestRunCombinesStreams(t *testing.T) {
	assert := assert.New(t)
	_, output, err := Run(context.Background(), 10*time.Second, "sh", "-c", "echo out; echo err >&2")
	assert.Nil(err)
	assert.Contains(output, "out")
	assert.Contains(output, "err")
}

func TestRunTimesOut(t *testing.T) {
	assert := assert.New(t)
	status, _, err := Run(context.Background(), 100*time.Millisecond, "sleep", "5")
	assert.NotEqual(0, status)
	var timeout *TimeoutError
	assert.True(errors.As(err, &timeout), "Timed-out command yields no TimeoutError")
}
