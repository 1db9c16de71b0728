// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import "fmt"

// Result of CalcPvt. Non-negative values mean a usable solution.
type PvtStat int

const (
	PVT_CONVERGED_NO_RAIM      PvtStat = 2  // Converged, RAIM unavailable (4 measurements) or disabled
	PVT_CONVERGED_RAIM_REPAIR  PvtStat = 1  // Converged, RAIM failed but repaired by excluding one measurement
	PVT_CONVERGED_RAIM_OK      PvtStat = 0  // Converged and verified by RAIM
	PVT_PDOP_TOO_HIGH          PvtStat = -1 // PDOP too high
	PVT_BAD_ALTITUDE           PvtStat = -2 // Altitude unreasonable
	PVT_BAD_VELOCITY           PvtStat = -3 // Velocity too high (only with PvtOpt.MaxVel)
	PVT_RAIM_REPAIR_FAILED     PvtStat = -4 // RAIM check failed and repair was unsuccessful
	PVT_RAIM_REPAIR_IMPOSSIBLE PvtStat = -5 // RAIM check failed and repair was impossible
	PVT_UNCONVERGED            PvtStat = -6 // Newton-Raphson iteration did not converge
	PVT_INSUFFICIENT_MEAS      PvtStat = -7 // Less than 4 measurements
)

// Messages for negative PvtStat, indexed by -stat-1
var PvtErrMsg = [...]string{
	"PDOP too high",
	"Altitude unreasonable",
	"Velocity >= 1000 kts",
	"RAIM repair attempted, failed",
	"RAIM repair impossible (not enough measurements)",
	"Took too long to converge",
	"Not enough measurements for solution (< 4)",
}

// PvtError is the error form of a negative PvtStat.
type PvtError struct {
	Stat PvtStat
}

func (e *PvtError) Error() string {
	return PvtErrMsg[-e.Stat-1]
}

// Sentinel errors for use with errors.Is
var (
	ErrPdopTooHigh          = &PvtError{PVT_PDOP_TOO_HIGH}
	ErrBadAltitude          = &PvtError{PVT_BAD_ALTITUDE}
	ErrBadVelocity          = &PvtError{PVT_BAD_VELOCITY}
	ErrRaimRepairFailed     = &PvtError{PVT_RAIM_REPAIR_FAILED}
	ErrRaimRepairImpossible = &PvtError{PVT_RAIM_REPAIR_IMPOSSIBLE}
	ErrUnconverged          = &PvtError{PVT_UNCONVERGED}
	ErrInsufficientMeas     = &PvtError{PVT_INSUFFICIENT_MEAS}
)

var pvtErrs = [...]*PvtError{
	ErrPdopTooHigh,
	ErrBadAltitude,
	ErrBadVelocity,
	ErrRaimRepairFailed,
	ErrRaimRepairImpossible,
	ErrUnconverged,
	ErrInsufficientMeas,
}

func (s PvtStat) OK() bool {
	return s >= 0
}

// Err returns nil for a usable solution, otherwise one of the sentinel errors.
func (s PvtStat) Err() error {
	if s >= 0 {
		return nil
	}
	if int(-s-1) >= len(pvtErrs) {
		return fmt.Errorf("unknown pvt status %d", int(s))
	}
	return pvtErrs[-s-1]
}

func (s PvtStat) String() string {
	switch s {
	case PVT_CONVERGED_NO_RAIM:
		return "Converged (RAIM unavailable)"
	case PVT_CONVERGED_RAIM_REPAIR:
		return "Converged (RAIM repaired)"
	case PVT_CONVERGED_RAIM_OK:
		return "Converged (RAIM passed)"
	}
	if err := s.Err(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("PvtStat(%d)", int(s))
}

// PvtSol is the solution of one epoch. All fields are zero unless the
// solve succeeded, and Valid is set only when the solution passed validation.
type PvtSol struct {
	Valid     bool       // Solution passed all checks
	NumUsed   int        // Number of measurements used
	Pos       PosXYZ     // Receiver position (ECEF) [m]
	Llh       PosLLH     // Receiver position (geodetic) [rad, rad, m]
	Vel       PosXYZ     // Receiver velocity (ECEF) [m/s]
	VelNED    PosNED     // Receiver velocity (NED) [m/s]
	ClkOffset float64    // Receiver clock offset [s]
	ClkDrift  float64    // Receiver clock drift [s/s]
	ErrCov    [7]float64 // Upper triangle of H position block (xx, xy, xz, yy, yz, zz) and GDOP
	Time      GTime      // Receiver time corrected for clock offset
	Removed   SatType    // Satellite excluded by RAIM repair
	Residual  float64    // Residual norm of the accepted measurements [m]
}

// validateSol checks the geometry and plausibility of a solution.
// It returns 0 if the solution is acceptable.
func validateSol(sol *PvtSol, dops *Dops, opt *PvtOpt) PvtStat {

	// Geometry too weak (also rejects NaN)
	if !(dops.Pdop <= opt.MaxPdop) {
		PrintD(2, "\tPDOP Test: %.3f > %.3f\n", dops.Pdop, opt.MaxPdop)
		return PVT_PDOP_TOO_HIGH
	}

	if sol.Llh.Hei < opt.MinHei || sol.Llh.Hei > opt.MaxHei {
		PrintD(2, "\tAltitude Test: %.3f not in [%.1f, %.1f]\n", sol.Llh.Hei, opt.MinHei, opt.MaxHei)
		return PVT_BAD_ALTITUDE
	}

	if opt.MaxVel > 0 && sol.Vel.Norm() >= opt.MaxVel {
		PrintD(2, "\tVelocity Test: %.3f >= %.3f\n", sol.Vel.Norm(), opt.MaxVel)
		return PVT_BAD_VELOCITY
	}

	return 0
}
