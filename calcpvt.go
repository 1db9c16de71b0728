// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Implements single epoch position, velocity and time (PVT) calculation.

package gopvt

// PvtOpt contains options for PVT calculation
type PvtOpt struct {
	DisableRaim bool    // If true, skip the RAIM check and repair
	ResThres    float64 // Residual norm threshold of the RAIM check [m]
	MaxPdop     float64 // Maximum allowed PDOP
	MinHei      float64 // Minimum allowed ellipsoidal height [m]
	MaxHei      float64 // Maximum allowed ellipsoidal height [m]
	MaxVel      float64 // Maximum allowed velocity [m/s]. 0 means no check
}

// NewPvtOpt creates a new PvtOpt with default values
func NewPvtOpt() *PvtOpt {
	return &PvtOpt{
		DisableRaim: false,              // Perform RAIM
		ResThres:    RESIDUAL_THRESHOLD, // Liberal residual threshold
		MaxPdop:     50,                 // PDOP threshold
		MinHei:      -1e3,               // Height band
		MaxHei:      1e6,                //
		MaxVel:      0,                  // No velocity check
	}
}

// CalcPvt calculates the position, velocity and time of one epoch.
//
// Parameters:
//   - ses: Session holding the warm start state. Updated on return.
//   - ms: Measurements of the epoch
//   - opt: Calculation options (nil for defaults)
//
// Returns:
//   - PvtStat: Non-negative for a valid solution, see PvtErrMsg otherwise
//   - *PvtSol: Solution. Zeroed unless the status is non-negative
//   - Dops: Dilution of precision (zero if the solution did not converge)
func CalcPvt(ses *Session, ms *MeasSet, opt *PvtOpt) (PvtStat, *PvtSol, Dops) {

	if opt == nil {
		opt = NewPvtOpt()
	}
	sol := &PvtSol{}

	n := ms.Len()
	if n < 4 {
		return PVT_INSUFFICIENT_MEAS, sol, Dops{}
	}

	ses.Iters = 0
	stat, bad, res := ses.pvtSolveRaim(ms, opt)
	PrintD(2, "\tpvtSolveRaim: %s, iters=%d\n", stat, ses.Iters)
	if stat < 0 {
		return stat, sol, Dops{}
	}

	st := &ses.State
	sol.NumUsed = n
	first := 0
	if stat == PVT_CONVERGED_RAIM_REPAIR {
		sol.NumUsed--
		sol.Removed = ms.At(bad).Sat
		if bad == 0 {
			first = 1
		}
	}

	// Dilution of precision
	H := ses.H()
	dops := CalcDops(H, st.Pos)

	// Error covariance (upper triangle of the position block) and GDOP
	sol.ErrCov = [7]float64{
		H.At(0, 0), H.At(0, 1), H.At(0, 2),
		H.At(1, 1), H.At(1, 2),
		H.At(2, 2),
		dops.Gdop,
	}

	sol.Pos = st.Pos
	sol.Llh = st.Pos.ToLLH()
	sol.Vel = st.Vel
	sol.VelNED = st.Vel.ToNED(st.Pos)
	sol.ClkOffset = st.Clk / C
	sol.ClkDrift = st.Drift / C
	sol.Residual = res

	// Time at receiver is time of transmission plus time of flight,
	// which is the pseudorange minus the clock offset
	m0 := ms.At(first)
	sol.Time = m0.Tot.Add(m0.Pr/C - st.Clk/C).Normalize()

	if r := validateSol(sol, &dops, opt); r < 0 {
		*sol = PvtSol{}
		st.Pos = PosXYZ{}
		return r, sol, dops
	}

	sol.Valid = true

	return stat, sol, dops
}
