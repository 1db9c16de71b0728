// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"fmt"
	"io"
	"os"

	m "github.com/mkhts/gopvt"
)

// Start of the simulated data
var simStart = m.GTime{Week: 2300, Sec: 345600}

// Simulated receiver: slow moving vehicle near Tokyo with a drifting clock
func simTruth() m.RcvState {
	pos := m.NewPosLLH(m.ToRad(35.681236), m.ToRad(139.767125), 40).ToXYZ()
	vel := m.PosNED{N: 8, E: -3, D: 0}
	return m.RcvState{
		Pos:   pos,
		Clk:   1234.5,
		Vel:   vel.ToXYZ(pos),
		Drift: 0.25,
	}
}

// simEpochs generates n epochs at 1 second intervals
func simEpochs(n int) []*m.Epoch {
	truth := simTruth()
	sky := m.SimSky(8)
	epochs := make([]*m.Epoch, 0, n)
	for i := 0; i < n; i++ {
		t := simStart.Add(float64(i))
		epochs = append(epochs, &m.Epoch{Time: t, Meas: m.SimEpoch(truth, t, sky)})
		truth.Pos.X += truth.Vel.X
		truth.Pos.Y += truth.Vel.Y
		truth.Pos.Z += truth.Vel.Z
		truth.Clk += truth.Drift
	}
	return epochs
}

func writeSim(w io.Writer, n int) error {
	return m.WriteEpochs(w, simEpochs(n))
}

// writeSimFile writes n simulated epochs into fn
func writeSimFile(fn string, n int) error {
	f, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("failed to create sim file: %w", err)
	}
	if err := writeSim(f, n); err != nil {
		f.Close()
		return err
	}
	m.PrintD(1, "%d epochs written to %s\n", n, fn)
	return f.Close()
}
