// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPvtStat(t *testing.T) {
	for _, s := range []PvtStat{PVT_CONVERGED_NO_RAIM, PVT_CONVERGED_RAIM_REPAIR, PVT_CONVERGED_RAIM_OK} {
		assert.True(t, s.OK())
		assert.NoError(t, s.Err())
	}

	tests := []struct {
		stat PvtStat
		err  error
		msg  string
	}{
		{PVT_PDOP_TOO_HIGH, ErrPdopTooHigh, "PDOP too high"},
		{PVT_BAD_ALTITUDE, ErrBadAltitude, "Altitude unreasonable"},
		{PVT_BAD_VELOCITY, ErrBadVelocity, "Velocity >= 1000 kts"},
		{PVT_RAIM_REPAIR_FAILED, ErrRaimRepairFailed, "RAIM repair attempted, failed"},
		{PVT_RAIM_REPAIR_IMPOSSIBLE, ErrRaimRepairImpossible, "RAIM repair impossible (not enough measurements)"},
		{PVT_UNCONVERGED, ErrUnconverged, "Took too long to converge"},
		{PVT_INSUFFICIENT_MEAS, ErrInsufficientMeas, "Not enough measurements for solution (< 4)"},
	}
	for _, tt := range tests {
		assert.False(t, tt.stat.OK())
		assert.True(t, errors.Is(tt.stat.Err(), tt.err), "stat=%d", int(tt.stat))
		assert.Equal(t, tt.msg, tt.stat.String())
		assert.Equal(t, tt.msg, PvtErrMsg[-tt.stat-1])

		var pe *PvtError
		assert.True(t, errors.As(tt.stat.Err(), &pe))
		assert.Equal(t, tt.stat, pe.Stat)
	}

	assert.Error(t, PvtStat(-8).Err())
	assert.Equal(t, "PvtStat(3)", PvtStat(3).String())
}

func TestValidateSol(t *testing.T) {
	opt := NewPvtOpt()
	good := Dops{Gdop: 2, Pdop: 1.5, Tdop: 1, Hdop: 1, Vdop: 1.1}

	sol := &PvtSol{Llh: PosLLH{Hei: 40}, Vel: PosXYZ{X: 10}}
	assert.Equal(t, PvtStat(0), validateSol(sol, &good, opt))

	tests := []struct {
		name string
		hei  float64
		pdop float64
		want PvtStat
	}{
		{"pdop at limit", 40, 50, 0},
		{"pdop over limit", 40, 50.01, PVT_PDOP_TOO_HIGH},
		{"pdop NaN", 40, math.NaN(), PVT_PDOP_TOO_HIGH},
		{"lowest", -1e3, 1.5, 0},
		{"too low", -1000.01, 1.5, PVT_BAD_ALTITUDE},
		{"highest", 1e6, 1.5, 0},
		{"too high", 1e6 + 1, 1.5, PVT_BAD_ALTITUDE},
		{"pdop checked first", 2e6, 60, PVT_PDOP_TOO_HIGH},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := &PvtSol{Llh: PosLLH{Hei: tt.hei}}
			dops := Dops{Pdop: tt.pdop}
			assert.Equal(t, tt.want, validateSol(sol, &dops, opt))
		})
	}
}

func TestValidateSolVelocity(t *testing.T) {
	dops := Dops{Pdop: 1.5}
	fast := &PvtSol{Vel: PosXYZ{X: 300, Y: 400}}

	// No check by default
	opt := NewPvtOpt()
	assert.Equal(t, PvtStat(0), validateSol(fast, &dops, opt))

	opt.MaxVel = 514.444 // 1000 kts
	assert.Equal(t, PvtStat(0), validateSol(fast, &dops, opt))
	opt.MaxVel = 500
	assert.Equal(t, PVT_BAD_VELOCITY, validateSol(fast, &dops, opt))
}
