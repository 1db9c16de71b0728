// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"path/filepath"
	"testing"

	m "github.com/mkhts/gopvt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeSim(t *testing.T, store *solStore, epochs []*m.Epoch) {
	t.Helper()
	ses := m.NewSession()
	for _, e := range epochs {
		ms, err := m.NewMeasSet(e.Meas)
		require.NoError(t, err)
		stat, sol, dops := m.CalcPvt(ses, ms, nil)
		require.NoError(t, store.Insert(e.Time, stat, sol, dops))
	}
}

func TestSolStore(t *testing.T) {
	dbFn := filepath.Join(t.TempDir(), "sol.db")
	store, err := openSolStore(dbFn)
	require.NoError(t, err)

	epochs := simEpochs(3)
	epochs[2].Meas[5].Pr -= 2e5
	storeSim(t, store, epochs)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := store.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	r := rows[0]
	assert.Equal(t, store.run, r.Run)
	assert.Equal(t, 2300, r.Week)
	assert.Equal(t, 345600.0, r.Sec)
	assert.Equal(t, int(m.PVT_CONVERGED_RAIM_OK), r.Stat)
	assert.True(t, r.Valid)
	assert.Equal(t, 8, r.Ns)
	assert.InDelta(t, 35.681236, r.Lat, 1e-8)
	assert.InDelta(t, 139.767125, r.Lon, 1e-8)
	assert.InDelta(t, 40, r.Hei, 1e-3)
	assert.InDelta(t, 8, r.Vn, 1e-3)
	assert.InDelta(t, -3, r.Ve, 1e-3)
	assert.False(t, r.Removed.Valid)

	r = rows[2]
	assert.Equal(t, int(m.PVT_CONVERGED_RAIM_REPAIR), r.Stat)
	assert.Equal(t, 7, r.Ns)
	assert.True(t, r.Removed.Valid)
	assert.Equal(t, "G06", r.Removed.String)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestSolStoreRuns(t *testing.T) {
	dbFn := filepath.Join(t.TempDir(), "sol.db")

	store1, err := openSolStore(dbFn)
	require.NoError(t, err)
	storeSim(t, store1, simEpochs(2))
	require.NoError(t, store1.Close())

	// Schema creation is idempotent and runs are kept apart
	store2, err := openSolStore(dbFn)
	require.NoError(t, err)
	defer store2.Close()
	assert.NotEqual(t, store1.run, store2.run)
	storeSim(t, store2, simEpochs(3))

	n, err := store2.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var total int
	require.NoError(t, store2.db.Get(&total, "SELECT COUNT(*) FROM solutions"))
	assert.Equal(t, 5, total)
}
