// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Receiver autonomous integrity monitoring (fault detection and exclusion).

package gopvt

import "fmt"

// pvtSolveRaim solves with all measurements, checks the residual and tries
// to repair the solution when the check fails.
//
// Returns:
//   - PvtStat: PVT_CONVERGED_NO_RAIM, PVT_CONVERGED_RAIM_OK, PVT_CONVERGED_RAIM_REPAIR,
//     PVT_RAIM_REPAIR_FAILED, PVT_RAIM_REPAIR_IMPOSSIBLE or PVT_UNCONVERGED
//   - int: index of the removed measurement when repaired, otherwise -1
//   - float64: residual norm of the final solution [m]
func (ses *Session) pvtSolveRaim(ms *MeasSet, opt *PvtOpt) (PvtStat, int, float64) {
	n := ms.Len()

	// Iteration didn't converge. Don't attempt to repair, too expensive.
	if err := ses.pvtIter(fullView(ms)); err != nil {
		PrintD(2, "\tpvtIter() failed, n=%d, err= %s\n", n, err.Error())
		return PVT_UNCONVERGED, -1, 0
	}

	res, ok := residualTest(ses.ws.omp[:n], ses.State.Clk, opt.ResThres)
	if opt.DisableRaim || ok {
		// Residual test couldn't have detected an error
		if opt.DisableRaim || n == 4 {
			return PVT_CONVERGED_NO_RAIM, -1, res
		}
		PrintD(3, "\tRAIM Test: residual=%.3f < %.3f\n", res, opt.ResThres)
		return PVT_CONVERGED_RAIM_OK, -1, res
	}
	PrintD(2, "\tRAIM Test: residual=%.3f >= %.3f, n=%d\n", res, opt.ResThres, n)

	// A 4 dimensional system is exactly constrained with one measurement
	// removed, so the bad measurement can't be identified.
	if n < MIN_REPAIR_MEAS {
		return PVT_RAIM_REPAIR_IMPOSSIBLE, -1, res
	}

	return ses.pvtRepair(ms, opt)
}

// pvtRepair solves with each measurement excluded in turn. The repair
// succeeds only when exactly one exclusion passes the residual test.
func (ses *Session) pvtRepair(ms *MeasSet, opt *PvtOpt) (PvtStat, int, float64) {
	n := ms.Len()
	bad := -1
	nPass := 0

	for k := 0; k < n; k++ {
		if err := ses.pvtIter(excludeView(ms, k)); err != nil {
			PrintD(2, "\tRAIM: exsat=%s not converged, giving up repair\n", ms.At(k).Sat)
			return PVT_RAIM_REPAIR_FAILED, -1, 0
		}
		res, ok := residualTest(ses.ws.omp[:n-1], ses.State.Clk, opt.ResThres)
		PrintD(2, "\tRAIM: exsat=%s residual=%.3f pass=%t\n", ms.At(k).Sat, res, ok)
		if ok {
			nPass++
			bad = k
		}
	}

	if nPass != 1 {
		PrintD(2, "\tRAIM: repair failed, %d exclusions passed\n", nPass)
		return PVT_RAIM_REPAIR_FAILED, -1, 0
	}

	// Recalculate the solution without the bad measurement. The same subset
	// converged above, so a failure here is a contract violation.
	if err := ses.pvtIter(excludeView(ms, bad)); err != nil {
		panic(fmt.Sprintf("gopvt: contract violation: solution without %s converged once but not on recalculation", ms.At(bad).Sat))
	}
	res, _ := residualTest(ses.ws.omp[:n-1], ses.State.Clk, opt.ResThres)
	PrintD(2, "\tRAIM: %s excluded\n", ms.At(bad).Sat)

	return PVT_CONVERGED_RAIM_REPAIR, bad, res
}
