// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}

// ------------------------------------
// Debug print function
// ------------------------------------

func PrintMat(X mat.Matrix) {
	r, c := X.Dims()
	fmt.Fprintf(os.Stderr, "(%d x %d)\n", r, c)
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	fmt.Fprintf(os.Stderr, "%v\n", fa)
}

func PrintA(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
}

func PrintAIf(cond bool, format string, a ...any) {
	if cond {
		PrintA(format, a...)
	}
}

func PrintB(t GTime, format string, a ...any) {
	fmt.Fprintf(os.Stderr, t.ToTime().UTC().Format("2006-01-02T15:04:05.000000")+"\t"+format, a...)
}

// Debug display level
var DBG_ int

// Debug display
func PrintD(v int, format string, a ...any) {
	PrintAIf(DBG_ >= v, format, a...)
}

func PrintE(err error) {
	fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

type SatVar []SatType

func (p *SatVar) Set(s string) error {
	*p = []SatType{}
	for _, a := range strings.Split(s, ",") {
		if len(a) < 2 {
			return fmt.Errorf("invalid satellite name: %q", a)
		}
		*p = append(*p, SatType(a))
	}
	return nil
}

func (p *SatVar) String() string {
	if p == nil {
		return ""
	}
	s := make([]string, len(*p))
	for i, sat := range *p {
		s[i] = string(sat)
	}
	return strings.Join(s, ",")
}

// ------------------------------------
// Others
// ------------------------------------

// Sort the list of satellite names
func Sorted(s []SatType) []SatType {
	s2 := make([]SatType, len(s))
	copy(s2, s)
	m := map[byte]int{'G': 0, 'J': 1, 'E': 2, 'R': 3, 'C': 4, 'S': 5}
	slices.SortFunc(s2, func(a, b SatType) int {
		if m[a[0]] != m[b[0]] {
			return m[a[0]] - m[b[0]]
		}
		return strings.Compare(string(a), string(b))
	})
	return s2
}

// Date and time flag value in UTC, formatted like "2006/01/02 15:04:05"
type TimeStr time.Time

const timeStrLayout = "2006/01/02 15:04:05"

func NewTimeStr(t time.Time) *TimeStr {
	p := TimeStr(t)
	return &p
}

func (p *TimeStr) MarshalText() ([]byte, error) {
	t := time.Time(*p)
	if t.IsZero() {
		return []byte{}, nil
	}
	return []byte(t.Format(timeStrLayout)), nil
}

func (p *TimeStr) UnmarshalText(text []byte) error {
	t, err := time.Parse(timeStrLayout, string(text))
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", string(text), err)
	}
	*p = TimeStr(t)
	return nil
}
