// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Dilution of precision
type Dops struct {
	Gdop float64
	Pdop float64
	Tdop float64
	Hdop float64
	Vdop float64
}

// CalcDops computes DOPs from H = (G^T G)^-1 (4 x 4, ECEF + clock) at pos.
//
// VDOP is obtained by projecting H through the Down unit vector in ECEF
// instead of rotating H into the NED frame. HDOP follows from
// PDOP^2 = HDOP^2 + VDOP^2.
func CalcDops(H mat.Matrix, pos PosXYZ) Dops {
	if r, c := H.Dims(); r != 4 || c != 4 {
		panic(mat.ErrShape)
	}

	pdop2 := H.At(0, 0) + H.At(1, 1) + H.At(2, 2)
	tdop2 := H.At(3, 3)

	M := NedMatrix(pos)
	down := mat.NewVecDense(4, []float64{M[2][0], M[2][1], M[2][2], 0})
	vdop2 := mat.Inner(down, H, down)

	return Dops{
		Gdop: math.Sqrt(pdop2 + tdop2),
		Pdop: math.Sqrt(pdop2),
		Tdop: math.Sqrt(tdop2),
		Hdop: math.Sqrt(pdop2 - vdop2),
		Vdop: math.Sqrt(vdop2),
	}
}
