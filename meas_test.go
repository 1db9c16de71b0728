// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeas(n int) []Measurement {
	meas := make([]Measurement, n)
	for i := range meas {
		meas[i] = Measurement{Sat: SatType(fmt.Sprintf("G%02d", i+1)), Pr: 2e7 + float64(i)}
	}
	return meas
}

func TestSatType(t *testing.T) {
	sat := SatType("J03")
	assert.Equal(t, SysType('J'), sat.Sys())
	assert.Equal(t, 3, sat.Num())

	bad := SatType("Gx1")
	assert.Equal(t, 0, bad.Num())
}

func TestMeasurementLambda(t *testing.T) {
	m := Measurement{}
	assert.InDelta(t, 0.190293672798, m.Lambda(), 1e-12)

	m.Freq = 1176.45e6
	assert.InDelta(t, C/1176.45e6, m.Lambda(), 1e-15)
}

func TestNewMeasSet(t *testing.T) {
	ms, err := NewMeasSet(testMeas(6), "G02", "G05", "G99")
	require.NoError(t, err)
	assert.Equal(t, 4, ms.Len())
	assert.Equal(t, []SatType{"G01", "G03", "G04", "G06"}, ms.Sats())

	// The set holds copies
	meas := testMeas(4)
	ms, err = NewMeasSet(meas)
	require.NoError(t, err)
	meas[0].Pr = 0
	assert.Equal(t, 2e7, ms.At(0).Pr)
}

func TestNewMeasSetTooMany(t *testing.T) {
	_, err := NewMeasSet(testMeas(MAX_CHANNELS + 1))
	assert.EqualError(t, err, "too many measurements: 33 > 32")

	// Excluded satellites are not counted
	_, err = NewMeasSet(testMeas(MAX_CHANNELS+3), "G01")
	assert.EqualError(t, err, "too many measurements: 34 > 32")

	// Fits once some are excluded
	ms, err := NewMeasSet(testMeas(MAX_CHANNELS+1), "G01")
	require.NoError(t, err)
	assert.Equal(t, MAX_CHANNELS, ms.Len())
}

func TestMeasSetAtOutOfRange(t *testing.T) {
	ms, err := NewMeasSet(testMeas(4))
	require.NoError(t, err)
	assert.Panics(t, func() { ms.At(4) })
	assert.Panics(t, func() { ms.At(-1) })
}

func TestMeasView(t *testing.T) {
	ms, err := NewMeasSet(testMeas(5))
	require.NoError(t, err)

	v := fullView(ms)
	assert.Equal(t, 5, v.Len())
	for j := 0; j < v.Len(); j++ {
		assert.Equal(t, ms.At(j), v.At(j))
	}

	tests := []struct {
		excl int
		want []SatType
	}{
		{0, []SatType{"G02", "G03", "G04", "G05"}},
		{2, []SatType{"G01", "G02", "G04", "G05"}},
		{4, []SatType{"G01", "G02", "G03", "G04"}},
	}
	for _, tt := range tests {
		v := excludeView(ms, tt.excl)
		require.Equal(t, 4, v.Len())
		got := make([]SatType, v.Len())
		for j := range got {
			got[j] = v.At(j).Sat
		}
		assert.Equal(t, tt.want, got, "excl=%d", tt.excl)
		assert.Panics(t, func() { v.At(4) })
	}
}

func TestSorted(t *testing.T) {
	sats := []SatType{"R03", "G10", "E01", "G02", "J01"}
	assert.Equal(t, []SatType{"G02", "G10", "J01", "E01", "R03"}, Sorted(sats))
	assert.Equal(t, SatType("R03"), sats[0])
}

func TestSatVar(t *testing.T) {
	var v SatVar
	require.NoError(t, v.Set("G02,G14"))
	assert.Equal(t, SatVar{"G02", "G14"}, v)
	assert.Equal(t, "G02,G14", v.String())

	assert.Error(t, v.Set("G02,,G14"))
}

func TestTimeStr(t *testing.T) {
	var ts TimeStr
	require.NoError(t, ts.UnmarshalText([]byte("2024/02/06 12:34:56")))
	assert.Equal(t, time.Date(2024, 2, 6, 12, 34, 56, 0, time.UTC), time.Time(ts))

	b, err := ts.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024/02/06 12:34:56", string(b))

	b, err = NewTimeStr(time.Time{}).MarshalText()
	require.NoError(t, err)
	assert.Empty(t, b)

	assert.Error(t, ts.UnmarshalText([]byte("2024-02-06T12:34:56Z")))
}
