// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"
)

// Type representing satellite name like "G10"
type SatType string

// Type representing satellite system like 'G'
type SysType byte

// Extract satellite system from satellite name
func (p *SatType) Sys() SysType {
	return SysType((*p)[0])
}

// Extract satellite number from satellite name
func (p *SatType) Num() int {
	if len(*p) < 3 {
		return 0
	}
	i, err := strconv.Atoi(string((*p)[1:3]))
	if err != nil {
		return 0
	}
	return i
}

// One satellite's observation for one epoch, with the satellite state
// already computed from the ephemeris at the time of transmission.
type Measurement struct {
	Sat    SatType // Satellite name
	Pr     float64 // Pseudorange [m]
	Dp     float64 // Doppler frequency [Hz]
	Freq   float64 // Carrier frequency [Hz] (0: L1)
	SatPos PosXYZ  // Satellite position (ECEF) [m]
	SatVel PosXYZ  // Satellite velocity (ECEF) [m/s]
	Tot    GTime   // Time of transmission
}

// Wavelength of the carrier [m]
func (p *Measurement) Lambda() float64 {
	if p.Freq <= 0 {
		return C / L1
	}
	return C / p.Freq
}

// Fixed capacity set of measurements used in one epoch
type MeasSet struct {
	dat [MAX_CHANNELS]Measurement
	n   int
}

// NewMeasSet copies meas into a fixed capacity set, dropping satellites in exSats.
// It fails if more than MAX_CHANNELS measurements remain.
func NewMeasSet(meas []Measurement, exSats ...SatType) (*MeasSet, error) {
	n := 0
	for i := range meas {
		if !slices.Contains(exSats, meas[i].Sat) {
			n++
		}
	}
	if n > MAX_CHANNELS {
		return nil, fmt.Errorf("too many measurements: %d > %d", n, MAX_CHANNELS)
	}

	ms := &MeasSet{}
	for i := range meas {
		if slices.Contains(exSats, meas[i].Sat) {
			PrintD(3, "\t%s: Exclude satellite\n", meas[i].Sat)
			continue
		}
		ms.dat[ms.n] = meas[i]
		ms.n++
	}
	return ms, nil
}

func (p *MeasSet) Len() int {
	return p.n
}

func (p *MeasSet) At(i int) *Measurement {
	if i < 0 || i >= p.n {
		panic(fmt.Sprintf("measurement index out of range: %d (len %d)", i, p.n))
	}
	return &p.dat[i]
}

// Satellite names in set order
func (p *MeasSet) Sats() []SatType {
	sats := make([]SatType, p.n)
	for i := 0; i < p.n; i++ {
		sats[i] = p.dat[i].Sat
	}
	return sats
}

// measView is a MeasSet with at most one index logically removed.
type measView struct {
	set  *MeasSet
	excl int // excluded index, -1 if none
}

func fullView(ms *MeasSet) measView {
	return measView{set: ms, excl: -1}
}

func excludeView(ms *MeasSet, k int) measView {
	return measView{set: ms, excl: k}
}

func (v measView) Len() int {
	if v.excl >= 0 {
		return v.set.n - 1
	}
	return v.set.n
}

func (v measView) At(j int) *Measurement {
	if v.excl >= 0 && j >= v.excl {
		j++
	}
	return v.set.At(j)
}
