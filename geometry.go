// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func EucDist(a, b *PosXYZ) float64 {
	return floats.Distance([]float64{a.X, a.Y, a.Z}, []float64{b.X, b.Y, b.Z}, 2)
}

// Rotate satellite position about the Z axis by the Earth rotation during
// the time of flight tau [s]. The ECEF frame rotates with the Earth, so the
// satellite appears rotated by -OMGE*tau. Small angle approximation (< 1mm).
func earthRotCorr(sat PosXYZ, tau float64) PosXYZ {
	wEtau := OMGE * tau
	return PosXYZ{
		X: sat.X + wEtau*sat.Y,
		Y: sat.Y - wEtau*sat.X,
		Z: sat.Z,
	}
}

// buildGeometry sets the geometry matrix G (n x 4) and the observed minus
// predicted pseudorange vector omp (n) for receiver position rx.
//
// Row j of G is the unit vector from satellite j to the receiver with 1 in
// the clock column, i.e. d(pr_j)/d(x, y, z, clk).
func buildGeometry(rx PosXYZ, mv measView, G *mat.Dense, omp *mat.VecDense) {
	var los [3]float64
	for j := 0; j < mv.Len(); j++ {
		m := mv.At(j)

		// Satellite position at time of transmission seen in the current ECEF frame
		tau := EucDist(&rx, &m.SatPos) / C
		xk := earthRotCorr(m.SatPos, tau)

		// Line of sight vector and predicted range
		los[0] = xk.X - rx.X
		los[1] = xk.Y - rx.Y
		los[2] = xk.Z - rx.Z
		pPred := floats.Norm(los[:], 2)

		omp.SetVec(j, m.Pr-pPred)

		for i := 0; i < 3; i++ {
			G.Set(j, i, -los[i]/pPred)
		}
		G.Set(j, 3, 1)
	}
}
