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

// Package journal logs all staging activity. The journal is a table of
// transfer records (one per file per staging attempt) kept in a local
// SQLite database, so a crashed pilot leaves a usable account of what it
// moved and what it didn't.
package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// transfer directions recorded in the journal
const (
	StageIn  = "stage-in"
	StageOut = "stage-out"
)

// a record storing all information relevant to one file transfer
type Record struct {
	// UUID associated with the transfer
	Id uuid.UUID
	// direction of the transfer (StageIn or StageOut)
	Direction string
	// the file moved, identified by its scope and logical name
	Scope string
	Lfn   string
	// storage endpoint the file was moved to or from
	Endpoint string
	// name of the transfer mechanism used
	Mover string
	// status of the transfer ("succeeded" or "failed")
	Status string
	// error text for failed transfers
	Error string
	// size of the file in bytes, where known
	Filesize int64
	// times at which the transfer started and finished
	StartTime time.Time
	StopTime  time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS transfers (
	id TEXT PRIMARY KEY,
	direction TEXT NOT NULL,
	scope TEXT NOT NULL,
	lfn TEXT NOT NULL,
	endpoint TEXT,
	mover TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	filesize INTEGER,
	started INTEGER NOT NULL,
	finished INTEGER NOT NULL
)`

// A Journal appends transfer records to a local database file. Safe for
// concurrent use; a single connection is shared under a mutex.
type Journal struct {
	mutex sync.Mutex
	conn  *sqlite.Conn
}

// Open opens (creating if necessary) the journal at the given path.
func Open(path string) (*Journal, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenWAL)
	if err != nil {
		return nil, &OpenError{Path: path, Message: err.Error()}
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		return nil, &OpenError{Path: path, Message: err.Error()}
	}
	return &Journal{conn: conn}, nil
}

// Append writes one transfer record to the journal.
func (j *Journal) Append(record Record) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	return sqlitex.Execute(j.conn,
		`INSERT INTO transfers (id, direction, scope, lfn, endpoint, mover, status, error, filesize, started, finished)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.Id.String(),
				record.Direction,
				record.Scope,
				record.Lfn,
				record.Endpoint,
				record.Mover,
				record.Status,
				record.Error,
				record.Filesize,
				record.StartTime.Unix(),
				record.StopTime.Unix(),
			},
		})
}

// Records returns every record in the journal, oldest first.
func (j *Journal) Records() ([]Record, error) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	var records []Record
	err := sqlitex.Execute(j.conn,
		`SELECT id, direction, scope, lfn, endpoint, mover, status, error, filesize, started, finished
		 FROM transfers ORDER BY started, id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := uuid.Parse(stmt.ColumnText(0))
				if err != nil {
					return err
				}
				records = append(records, Record{
					Id:        id,
					Direction: stmt.ColumnText(1),
					Scope:     stmt.ColumnText(2),
					Lfn:       stmt.ColumnText(3),
					Endpoint:  stmt.ColumnText(4),
					Mover:     stmt.ColumnText(5),
					Status:    stmt.ColumnText(6),
					Error:     stmt.ColumnText(7),
					Filesize:  stmt.ColumnInt64(8),
					StartTime: time.Unix(stmt.ColumnInt64(9), 0),
					StopTime:  time.Unix(stmt.ColumnInt64(10), 0),
				})
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.conn.Close()
}
