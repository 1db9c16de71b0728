// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	m "github.com/mkhts/gopvt"
)

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS solutions (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run     TEXT    NOT NULL,
	week    INTEGER NOT NULL,
	sec     REAL    NOT NULL,
	stat    INTEGER NOT NULL,
	valid   INTEGER NOT NULL,
	ns      INTEGER NOT NULL,
	x       REAL, y REAL, z REAL,
	lat     REAL, lon REAL, hei REAL,
	vn      REAL, ve REAL, vd REAL,
	clk     REAL, drift REAL,
	gdop    REAL, pdop REAL, hdop REAL, vdop REAL, tdop REAL,
	removed TEXT
);
CREATE INDEX IF NOT EXISTS idx_solutions_time ON solutions(week, sec);
CREATE INDEX IF NOT EXISTS idx_solutions_run ON solutions(run);
`

const insertSolutionSQL = `
INSERT INTO solutions (run, week, sec, stat, valid, ns, x, y, z, lat, lon, hei, vn, ve, vd, clk, drift, gdop, pdop, hdop, vdop, tdop, removed)
VALUES (:run, :week, :sec, :stat, :valid, :ns, :x, :y, :z, :lat, :lon, :hei, :vn, :ve, :vd, :clk, :drift, :gdop, :pdop, :hdop, :vdop, :tdop, :removed)`

// One row of the solutions table
type solRow struct {
	Run     string         `db:"run"`
	Week    int            `db:"week"`
	Sec     float64        `db:"sec"`
	Stat    int            `db:"stat"`
	Valid   bool           `db:"valid"`
	Ns      int            `db:"ns"`
	X       float64        `db:"x"`
	Y       float64        `db:"y"`
	Z       float64        `db:"z"`
	Lat     float64        `db:"lat"` // [deg]
	Lon     float64        `db:"lon"` // [deg]
	Hei     float64        `db:"hei"`
	Vn      float64        `db:"vn"`
	Ve      float64        `db:"ve"`
	Vd      float64        `db:"vd"`
	Clk     float64        `db:"clk"`   // [s]
	Drift   float64        `db:"drift"` // [s/s]
	Gdop    float64        `db:"gdop"`
	Pdop    float64        `db:"pdop"`
	Hdop    float64        `db:"hdop"`
	Vdop    float64        `db:"vdop"`
	Tdop    float64        `db:"tdop"`
	Removed sql.NullString `db:"removed"`
}

// solStore writes solutions into a SQLite database. Rows of one run share
// a run id.
type solStore struct {
	db  *sqlx.DB
	run string

	closeOnce sync.Once
	closeErr  error
}

// openSolStore opens (or creates) the database and its schema
func openSolStore(path string) (*solStore, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "_journal_mode=WAL&_synchronous=NORMAL"))
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	if _, err = db.Exec(initSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &solStore{db: db, run: uuid.NewString()}, nil
}

func newSolRow(run string, t m.GTime, stat m.PvtStat, sol *m.PvtSol, dops m.Dops) solRow {
	r := solRow{
		Run:   run,
		Week:  t.Week,
		Sec:   t.Sec,
		Stat:  int(stat),
		Valid: sol.Valid,
		Ns:    sol.NumUsed,
		X:     sol.Pos.X,
		Y:     sol.Pos.Y,
		Z:     sol.Pos.Z,
		Lat:   m.ToDeg(sol.Llh.Lat),
		Lon:   m.ToDeg(sol.Llh.Lon),
		Hei:   sol.Llh.Hei,
		Vn:    sol.VelNED.N,
		Ve:    sol.VelNED.E,
		Vd:    sol.VelNED.D,
		Clk:   sol.ClkOffset,
		Drift: sol.ClkDrift,
		Gdop:  dops.Gdop,
		Pdop:  dops.Pdop,
		Hdop:  dops.Hdop,
		Vdop:  dops.Vdop,
		Tdop:  dops.Tdop,
	}
	if len(sol.Removed) > 0 {
		r.Removed = sql.NullString{String: string(sol.Removed), Valid: true}
	}
	return r
}

// Insert stores the solution of the epoch at t
func (s *solStore) Insert(t m.GTime, stat m.PvtStat, sol *m.PvtSol, dops m.Dops) error {
	if _, err := s.db.NamedExec(insertSolutionSQL, newSolRow(s.run, t, stat, sol, dops)); err != nil {
		return fmt.Errorf("inserting solution: %w", err)
	}
	return nil
}

// Count returns the number of solutions stored by this run
func (s *solStore) Count() (n int, err error) {
	err = s.db.Get(&n, "SELECT COUNT(*) FROM solutions WHERE run = ?", s.run)
	return
}

// Rows returns the solutions stored by this run in insertion order
func (s *solStore) Rows() (rows []solRow, err error) {
	err = s.db.Select(&rows, `SELECT run, week, sec, stat, valid, ns, x, y, z, lat, lon, hei, vn, ve, vd,
		clk, drift, gdop, pdop, hdop, vdop, tdop, removed FROM solutions WHERE run = ? ORDER BY id`, s.run)
	return
}

func (s *solStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
