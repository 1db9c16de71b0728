// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Newton-Raphson position solver, velocity solver and residual test.

package gopvt

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Calculation constants for PVT processing
const (
	MAX_ITERATIONS        = 10     // Maximum number of Newton-Raphson steps per solve
	CONVERGENCE_THRESHOLD = 0.001  // Convergence threshold of the position step [m]
	RESIDUAL_THRESHOLD    = 3000.0 // Residual norm threshold [m]. Very liberal, typical range 20 - 120
	MIN_REPAIR_MEAS       = 6      // Minimum number of measurements to attempt RAIM repair
)

var errNotConverged = errors.New("solution did not converge")

// RcvState is the receiver state estimated by the solver.
type RcvState struct {
	Pos   PosXYZ  // Receiver position (ECEF) [m]
	Clk   float64 // Receiver clock offset [m]
	Vel   PosXYZ  // Receiver velocity (ECEF) [m/s]
	Drift float64 // Receiver clock drift [m/s]
}

// Session holds the receiver state carried between epochs as a warm start,
// and the matrices of the last solve. A Session must not be shared between
// goroutines; use one Session per receiver.
type Session struct {
	State     RcvState // Warm start state, updated by each solve
	Iters     int      // Newton-Raphson steps taken by the last CalcPvt call
	LastIters int      // Newton-Raphson steps taken by the last iterator run

	ws workspace
}

// NewSession creates a session starting from the center of the Earth.
func NewSession() *Session {
	return &Session{}
}

// Reset drops the warm start.
func (ses *Session) Reset() {
	ses.State = RcvState{}
}

// H returns (G^T G)^-1 of the last solve. The matrix shares storage with the
// session and is overwritten by the next solve.
func (ses *Session) H() *mat.Dense {
	return mat.NewDense(4, 4, ses.ws.h[:])
}

// Backing storage for the solver matrices
type workspace struct {
	g    [MAX_CHANNELS * 4]float64 // G (n x 4)
	x    [4 * MAX_CHANNELS]float64 // X = H G^T (4 x n)
	omp  [MAX_CHANNELS]float64     // Observed minus predicted pseudorange
	rate [MAX_CHANNELS]float64     // Range rate residual
	gtg  [4 * 4]float64            // G^T G
	h    [4 * 4]float64            // H = (G^T G)^-1
	corr [4]float64                // State correction
	vel  [4]float64                // Velocity and clock drift
}

// pvtStep performs one Newton-Raphson step of the position and clock offset
// on the measurements of mv. It returns the size of the position correction
// and whether it is within CONVERGENCE_THRESHOLD. On convergence the
// velocity is also solved using the same geometry.
func (ses *Session) pvtStep(mv measView) (step float64, converged bool, err error) {
	n := mv.Len()
	ws := &ses.ws
	st := &ses.State

	// Geometry matrix and residual vector at the current estimate
	G := mat.NewDense(n, 4, ws.g[:n*4])
	omp := mat.NewVecDense(n, ws.omp[:n])
	buildGeometry(st.Pos, mv, G, omp)

	// H = (G^T G)^-1
	GtG := mat.NewDense(4, 4, ws.gtg[:])
	GtG.Mul(G.T(), G)
	H := mat.NewDense(4, 4, ws.h[:])
	if err := H.Inverse(GtG); err != nil {
		return 0, false, fmt.Errorf("inverse of G^T G failed: %w", err)
	}

	// X = H G^T maps pseudorange residuals onto state corrections
	X := mat.NewDense(4, n, ws.x[:4*n])
	X.Mul(H, G.T())

	// Correction = X omp
	corr := mat.NewVecDense(4, ws.corr[:])
	corr.MulVec(X, omp)

	if DBG_ >= 4 {
		PrintA("G=\n")
		PrintMat(G)
		PrintA("omp=\n")
		PrintMat(omp)
		PrintA("H=\n")
		PrintMat(H)
	}

	// Position is accumulated, clock offset is solved directly each step
	st.Pos.X += ws.corr[0]
	st.Pos.Y += ws.corr[1]
	st.Pos.Z += ws.corr[2]
	st.Clk = ws.corr[3]

	step = floats.Norm(ws.corr[:3], 2)
	if step > CONVERGENCE_THRESHOLD {
		return step, false, nil
	}

	velSolve(st, mv, G, X, ws)

	return step, true, nil
}

// velSolve solves receiver velocity and clock drift with one linear step,
// reusing G and X of the converged position solution.
func velSolve(st *RcvState, mv measView, G, X *mat.Dense, ws *workspace) {
	n := mv.Len()
	res := mat.NewVecDense(n, ws.rate[:n])
	var sv [3]float64
	for j := 0; j < n; j++ {
		m := mv.At(j)
		sv[0], sv[1], sv[2] = m.SatVel.X, m.SatVel.Y, m.SatVel.Z

		// Predicted range rate due to the satellite motion only
		ratePred := -floats.Dot(G.RawRowView(j)[:3], sv[:])

		// The rest is due to the receiver motion and clock drift
		res.SetVec(j, -m.Dp*m.Lambda()-ratePred)
	}

	v := mat.NewVecDense(4, ws.vel[:])
	v.MulVec(X, res)

	st.Vel = PosXYZ{X: ws.vel[0], Y: ws.vel[1], Z: ws.vel[2]}
	st.Drift = ws.vel[3]
}

// pvtIter repeats pvtStep until convergence or MAX_ITERATIONS.
// The receiver position is reset when the solution fails to converge.
func (ses *Session) pvtIter(mv measView) error {
	st := &ses.State
	st.Vel = PosXYZ{}
	st.Drift = 0

	ses.LastIters = 0
	for iter := 0; iter < MAX_ITERATIONS; iter++ {
		ses.LastIters++
		ses.Iters++
		step, converged, err := ses.pvtStep(mv)
		if err != nil {
			PrintD(2, "\tpvtStep() failed, err= %s\n", err.Error())
			break
		}
		PrintD(3, "\tITER %d: n=%d, step=%.6f, XYZ= %.3f %.3f %.3f, clk=%.3f\n", iter+1, mv.Len(), step, st.Pos.X, st.Pos.Y, st.Pos.Z, st.Clk)
		if converged {
			return nil
		}
	}

	st.Pos = PosXYZ{}
	return errNotConverged
}

// residualTest references the residuals omp to the receiver clock offset clk
// and checks the norm against thres.
func residualTest(omp []float64, clk, thres float64) (res float64, ok bool) {
	var buf [MAX_CHANNELS]float64
	d := buf[:len(omp)]
	copy(d, omp)
	floats.AddConst(-clk, d)
	res = floats.Norm(d, 2)
	return res, res < thres
}
