// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	m "github.com/mkhts/gopvt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArgs() cmdOpt {
	opt := m.NewPvtOpt()
	return cmdOpt{
		maxPdop:  opt.MaxPdop,
		maxVel:   opt.MaxVel,
		resThres: opt.ResThres,
	}
}

func parseFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}

func TestProcessEpochs(t *testing.T) {
	epochs := simEpochs(5)

	var pos bytes.Buffer
	nok := processEpochs(testArgs(), epochs, &pos, nil)
	assert.Equal(t, 5, nok)

	lines := strings.Split(strings.TrimSpace(pos.String()), "\n")
	require.Len(t, lines, 5)
	fields := strings.Fields(lines[0])
	require.Len(t, fields, 17)
	assert.InDelta(t, 35.681236, parseFloat(t, fields[2]), 1e-8)
	assert.InDelta(t, 139.767125, parseFloat(t, fields[3]), 1e-8)
	assert.InDelta(t, 40, parseFloat(t, fields[4]), 1e-3)
	assert.InDelta(t, 8, parseFloat(t, fields[8]), 1e-3)
	assert.InDelta(t, -3, parseFloat(t, fields[9]), 1e-3)
	assert.Equal(t, "8", fields[6])
	assert.Equal(t, "0", fields[15])
	assert.Equal(t, "-", fields[16])
}

func TestProcessEpochsWithFaults(t *testing.T) {
	epochs := simEpochs(3)

	// Bad pseudorange on one satellite of the second epoch
	epochs[1].Meas[4].Pr += 1e5

	// Too few satellites in the last epoch
	epochs[2].Meas = epochs[2].Meas[:3]

	var pos bytes.Buffer
	nok := processEpochs(testArgs(), epochs, &pos, nil)
	assert.Equal(t, 2, nok)

	lines := strings.Split(strings.TrimSpace(pos.String()), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	assert.Equal(t, "7", fields[6])
	assert.Equal(t, "1", fields[15])
	assert.Equal(t, "G05", fields[16])
}

func TestProcessEpochsExclude(t *testing.T) {
	args := testArgs()
	args.exSats = m.SatVar{"G01", "G02"}

	var pos bytes.Buffer
	nok := processEpochs(args, simEpochs(2), &pos, nil)
	assert.Equal(t, 2, nok)
	fields := strings.Fields(strings.Split(pos.String(), "\n")[0])
	assert.Equal(t, "6", fields[6])
}

func TestProcessEpochsTimeWindow(t *testing.T) {
	epochs := simEpochs(5)
	args := testArgs()
	args.ts = epochs[1].Time.ToTime()
	args.te = epochs[3].Time.ToTime()

	var pos bytes.Buffer
	nok := processEpochs(args, epochs, &pos, nil)
	assert.Equal(t, 3, nok)

	lines := strings.Split(strings.TrimSpace(pos.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, epochs[1].Time.ToTime().UTC().Format("15:04:05"), strings.Fields(lines[0])[1][:8])
}

func TestShouldProcessEpoch(t *testing.T) {
	e := simEpochs(1)[0]
	dt := e.Time.ToTime()

	args := testArgs()
	assert.True(t, shouldProcessEpoch(e, args))

	args.ts = dt
	args.te = dt
	assert.True(t, shouldProcessEpoch(e, args))

	args.ts = dt.Add(time.Second)
	assert.False(t, shouldProcessEpoch(e, args))

	args.ts = time.Time{}
	args.te = dt.Add(-time.Second)
	assert.False(t, shouldProcessEpoch(e, args))
}

func TestPrintPosHeader(t *testing.T) {
	var pos bytes.Buffer
	printPosHeader(&pos, "/usr/bin/gopvt", "sim.yaml", simEpochs(2))
	s := pos.String()
	assert.Contains(t, s, "% program   : gopvt\n")
	assert.Contains(t, s, "% inp file  : sim.yaml\n")
	assert.Contains(t, s, "week2300 345600.0s")
	assert.Contains(t, s, "week2300 345601.0s")
	assert.Contains(t, s, "% epochs    : 2\n")
}

func TestRunApplication(t *testing.T) {
	dir := t.TempDir()
	epochFn := filepath.Join(dir, "sim.yaml")
	posFn := filepath.Join(dir, "out.pos")
	dbFn := filepath.Join(dir, "sol.db")

	require.NoError(t, runApplication(cmdOpt{simFn: epochFn, simEpochs: 4}))

	args := testArgs()
	args.epochFn = epochFn
	args.posFn = posFn
	args.dbFn = dbFn
	require.NoError(t, runApplication(args))

	b, err := os.ReadFile(posFn)
	require.NoError(t, err)
	var nsol int
	for _, l := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if !strings.HasPrefix(l, "%") {
			nsol++
		}
	}
	assert.Equal(t, 4, nsol)

	store, err := openSolStore(dbFn)
	require.NoError(t, err)
	defer store.Close()
	var n int
	require.NoError(t, store.db.Get(&n, "SELECT COUNT(*) FROM solutions"))
	assert.Equal(t, 4, n)
}

func TestRunApplicationMissingFile(t *testing.T) {
	args := testArgs()
	args.epochFn = filepath.Join(t.TempDir(), "none.yaml")
	assert.Error(t, runApplication(args))
}
