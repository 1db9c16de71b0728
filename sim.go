// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default geometric range for simulated satellites [m]
const SIM_RANGE = 2.2e7

// SimSat describes a simulated satellite seen from the receiver
type SimSat struct {
	Sat   SatType // Satellite name
	Az    float64 // Azimuth [rad]
	El    float64 // Elevation [rad]
	Range float64 // Distance from the receiver [m] (0: SIM_RANGE)
	Vel   PosXYZ  // Satellite velocity (ECEF) [m/s]
	Freq  float64 // Carrier frequency [Hz] (0: L1)
}

// Sky layout used by SimSky (azimuth, elevation in degrees)
var simSky = [...][2]float64{
	{0, 80}, {60, 35}, {120, 50}, {180, 25}, {240, 45}, {300, 30},
	{30, 15}, {150, 70}, {210, 60}, {270, 15}, {90, 20}, {330, 55},
}

// SimSky returns n (at most 12) satellites spread over the sky.
func SimSky(n int) []SimSat {
	n = min(n, len(simSky))
	sats := make([]SimSat, n)
	for i := 0; i < n; i++ {
		az := ToRad(simSky[i][0])
		el := ToRad(simSky[i][1])
		sats[i] = SimSat{
			Sat: SatType([]byte{'G', byte('0' + (i+1)/10), byte('0' + (i+1)%10)}),
			Az:  az,
			El:  el,
			Vel: PosXYZ{X: 2800 * math.Cos(az+el), Y: -1500 * math.Sin(az), Z: 1200 * math.Cos(el)},
		}
	}
	return sats
}

// SimEpoch builds noiseless measurements received at time t by a receiver
// in state truth. The measurements follow the model used by the solver,
// including the Earth rotation during the time of flight, so solving them
// recovers truth.
func SimEpoch(truth RcvState, t GTime, sats []SimSat) []Measurement {
	meas := make([]Measurement, 0, len(sats))
	rx := truth.Pos
	for _, s := range sats {
		rng := s.Range
		if rng <= 0 {
			rng = SIM_RANGE
		}
		enu := PosENU{
			E: rng * math.Cos(s.El) * math.Sin(s.Az),
			N: rng * math.Cos(s.El) * math.Cos(s.Az),
			U: rng * math.Sin(s.El),
		}
		spos := enu.ToXYZ(rx)

		// Range to the satellite as seen in the receive time frame
		xk := earthRotCorr(spos, EucDist(&rx, &spos)/C)
		u := []float64{xk.X - rx.X, xk.Y - rx.Y, xk.Z - rx.Z}
		r := floats.Norm(u, 2)
		floats.Scale(1/r, u)

		m := Measurement{
			Sat:    s.Sat,
			Pr:     r + truth.Clk,
			Freq:   s.Freq,
			SatPos: spos,
			SatVel: s.Vel,
		}

		// Range rate and Doppler
		dv := []float64{s.Vel.X - truth.Vel.X, s.Vel.Y - truth.Vel.Y, s.Vel.Z - truth.Vel.Z}
		rate := floats.Dot(u, dv) + truth.Drift
		m.Dp = -rate / m.Lambda()

		m.Tot = t.Add(-r / C).Normalize()
		meas = append(meas, m)
	}
	return meas
}
