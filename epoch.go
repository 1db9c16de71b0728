// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// Reads and writes epoch files (YAML) holding measurements per epoch.

package gopvt

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Measurements of one epoch
type Epoch struct {
	Time GTime         // Nominal epoch time
	Meas []Measurement // Measurements
}

// Sats returns the satellite names of the epoch in sorted order
func (p *Epoch) Sats() []SatType {
	sats := make([]SatType, len(p.Meas))
	for i := range p.Meas {
		sats[i] = p.Meas[i].Sat
	}
	return Sorted(sats)
}

type epochFile struct {
	Epochs []epochYaml `yaml:"epochs"`
}

type epochYaml struct {
	Time GTime      `yaml:"time"`
	Meas []measYaml `yaml:"meas"`
}

type measYaml struct {
	Sat  SatType    `yaml:"sat"`
	Pr   float64    `yaml:"pr"`
	Dp   float64    `yaml:"dp"`
	Freq float64    `yaml:"freq,omitempty"`
	Pos  [3]float64 `yaml:"pos,flow"`
	Vel  [3]float64 `yaml:"vel,flow"`
	Tot  GTime      `yaml:"tot"`
}

// ReadEpochs reads epochs from a YAML epoch file. Epochs are returned in
// time order.
func ReadEpochs(r io.Reader) ([]*Epoch, error) {
	var f epochFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []*Epoch{}, nil
		}
		return nil, fmt.Errorf("failed to decode epoch file: %w", err)
	}

	epochs := make([]*Epoch, 0, len(f.Epochs))
	for i, ey := range f.Epochs {
		e := &Epoch{Time: ey.Time, Meas: make([]Measurement, 0, len(ey.Meas))}
		for _, my := range ey.Meas {
			if len(my.Sat) < 2 {
				return nil, fmt.Errorf("epoch %d: invalid satellite name: %q", i, my.Sat)
			}
			e.Meas = append(e.Meas, Measurement{
				Sat:    my.Sat,
				Pr:     my.Pr,
				Dp:     my.Dp,
				Freq:   my.Freq,
				SatPos: PosXYZ{X: my.Pos[0], Y: my.Pos[1], Z: my.Pos[2]},
				SatVel: PosXYZ{X: my.Vel[0], Y: my.Vel[1], Z: my.Vel[2]},
				Tot:    my.Tot,
			})
		}
		PrintD(3, "\tepoch %d: week=%d sec=%.3f nmeas=%d\n", i, e.Time.Week, e.Time.Sec, len(e.Meas))
		epochs = append(epochs, e)
	}
	slices.SortStableFunc(epochs, func(a, b *Epoch) int {
		switch {
		case a.Time.Less(b.Time, false):
			return -1
		case b.Time.Less(a.Time, false):
			return 1
		}
		return 0
	})
	return epochs, nil
}

// WriteEpochs writes epochs as a YAML epoch file
func WriteEpochs(w io.Writer, epochs []*Epoch) error {
	f := epochFile{Epochs: make([]epochYaml, 0, len(epochs))}
	for _, e := range epochs {
		ey := epochYaml{Time: e.Time, Meas: make([]measYaml, 0, len(e.Meas))}
		for _, m := range e.Meas {
			ey.Meas = append(ey.Meas, measYaml{
				Sat:  m.Sat,
				Pr:   m.Pr,
				Dp:   m.Dp,
				Freq: m.Freq,
				Pos:  [3]float64{m.SatPos.X, m.SatPos.Y, m.SatPos.Z},
				Vel:  [3]float64{m.SatVel.X, m.SatVel.Y, m.SatVel.Z},
				Tot:  m.Tot,
			})
		}
		f.Epochs = append(f.Epochs, ey)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("failed to encode epoch file: %w", err)
	}
	return enc.Close()
}
