// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlexport stores analyzed traces in a SQL database.
//
// Every export becomes one row of Runs, with the points of every
// series in Points and the statistics table in Stats.
package sqlexport

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/latencyplot/gstlatency/latseries"
)

// DB is a SQL database that runs are exported to. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql    *sql.DB
	driver string
}

// Drivers lists the supported database drivers. "sqlite3" uses cgo;
// "sqlite" is a pure Go implementation of the same database.
var Drivers = []string{"sqlite3", "sqlite", "mysql"}

// OpenSQL opens a database for export and creates any missing tables.
// The parameters are the same as the parameters for sql.Open.
// driverName must be one of Drivers.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	if !slices.Contains(Drivers, driverName) {
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	d := &DB{sql: db, driver: driverName}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// createTmpl is evaluated with . as a map containing one entry whose
// key is the driver name, plus "sqlite" for either sqlite driver.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT{{end}},
	Input VARCHAR(1024),
	Bins INTEGER,
	Created BIGINT
);
CREATE TABLE IF NOT EXISTS Points (
	RunID BIGINT UNSIGNED,
	Series VARCHAR(255),
	Kind VARCHAR(16),
	Idx INTEGER,
	T DOUBLE,
	Latency DOUBLE,
	PRIMARY KEY (RunID, Series, Kind, Idx),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Stats (
	RunID BIGINT UNSIGNED,
	Pos INTEGER,
	Label VARCHAR(255),
	Kind VARCHAR(16),
	Median DOUBLE,
	Mean DOUBLE,
	StdDev DOUBLE,
	Variance DOUBLE,
	PRIMARY KEY (RunID, Pos),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

func (db *DB) createTables() error {
	var buf bytes.Buffer
	args := map[string]bool{db.driver: true}
	if strings.HasPrefix(db.driver, "sqlite") {
		args["sqlite"] = true
	}
	if err := createTmpl.Execute(&buf, args); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// A Run is one analyzed trace.
type Run struct {
	Input  string
	Bins   int
	Series []*latseries.Series
	Rows   []latseries.Row
}

// now is overridden by tests.
var now = time.Now

// pointsPerInsert bounds the number of rows in one INSERT statement,
// keeping well below sqlite's default limit of host parameters.
const pointsPerInsert = 100

// Export writes run in a single transaction and returns its RunID.
func (db *DB) Export(ctx context.Context, run *Run) (id int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx, "INSERT INTO Runs(Input, Bins, Created) VALUES (?, ?, ?)", run.Input, run.Bins, now().Unix())
	if err != nil {
		return 0, err
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	var args []interface{}
	flush := func() error {
		if len(args) == 0 {
			return nil
		}
		query := "INSERT INTO Points(RunID, Series, Kind, Idx, T, Latency) VALUES " + strings.Repeat("(?, ?, ?, ?, ?, ?), ", len(args)/6)
		query = strings.TrimSuffix(query, ", ")
		_, err := tx.ExecContext(ctx, query, args...)
		args = args[:0]
		return err
	}
	for _, s := range run.Series {
		kind := s.Kind.String()
		for i, ts := range s.Timestamps {
			args = append(args, id, s.Name, kind, i, ts, s.Latencies[i])
			if len(args)/6 == pointsPerInsert {
				if err = flush(); err != nil {
					return 0, err
				}
			}
		}
	}
	if err = flush(); err != nil {
		return 0, err
	}

	for i, r := range run.Rows {
		if _, err = tx.ExecContext(ctx, "INSERT INTO Stats(RunID, Pos, Label, Kind, Median, Mean, StdDev, Variance) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, i, r.Label, r.Kind.String(), r.Median, r.Mean, r.StdDev, r.Variance); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Close closes the database connections.
func (db *DB) Close() error {
	return db.sql.Close()
}
