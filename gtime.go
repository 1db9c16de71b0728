// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gopvt

import (
	"math"
	"time"
)

// GPS time as week number and seconds of week
type GTime struct {
	Week int     `yaml:"week"`
	Sec  float64 `yaml:"sec"`
}

func NewGTime(dt time.Time) *GTime {
	t := dt.Unix()
	t -= time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC).Unix() // Elapsed seconds since 1980/1/6 00:00:00
	return &GTime{
		Week: int(t / (3600 * 24 * 7)),
		Sec:  float64(t%(3600*24*7)) + float64(dt.Nanosecond())/1000000000,
	}
}

func (p *GTime) ToTime() time.Time {
	o := time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC).Unix() // GPS time starts from 1980/1/6 00:00:00
	i := int64(math.Trunc(p.Sec))
	t := int64(3600*24*7*p.Week) + i + o
	n := int64((p.Sec - float64(i)) * 1e9)
	return time.Unix(t, n) // Unix time is the elapsed seconds since 1970/1/1 00:00:00
}

// Add seconds. The result is not normalized.
func (p GTime) Add(sec float64) GTime {
	return GTime{Week: p.Week, Sec: p.Sec + sec}
}

// Normalize so that 0 <= Sec < WEEK, carrying into Week
func (p GTime) Normalize() GTime {
	for p.Sec < 0 {
		p.Sec += WEEK
		p.Week--
	}
	for p.Sec >= WEEK {
		p.Sec -= WEEK
		p.Week++
	}
	return p
}

// Difference p - b in seconds
func (p *GTime) Sub(b GTime) float64 {
	return float64(p.Week-b.Week)*WEEK + p.Sec - b.Sec
}

func (p *GTime) Less(b GTime, roundSec bool) bool {
	if p.Week == b.Week {
		if roundSec {
			return math.Round(p.Sec) < math.Round(b.Sec)
		} else {
			return p.Sec < b.Sec
		}
	} else {
		return p.Week < b.Week
	}
}

func (p *GTime) Before(t time.Time, roundSec bool) bool {
	return p.Less(*NewGTime(t), roundSec)
}

func (p *GTime) After(t time.Time, roundSec bool) bool {
	return NewGTime(t).Less(*p, roundSec)
}
