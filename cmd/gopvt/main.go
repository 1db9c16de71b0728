// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	m "github.com/mkhts/gopvt"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		m.PrintE(err)
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(args cmdOpt) error {

	// Write a simulated epoch file instead of solving
	if len(args.simFn) > 0 {
		return writeSimFile(args.simFn, args.simEpochs)
	}

	epochs, err := readEpochs(args.epochFn)
	if err != nil {
		return fmt.Errorf("failed to read epoch file: %w", err)
	}

	// Prepare output file
	pos, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer closeOutput(pos)

	// Open solution database
	var store *solStore
	if len(args.dbFn) > 0 {
		store, err = openSolStore(args.dbFn)
		if err != nil {
			return fmt.Errorf("failed to open solution database: %w", err)
		}
		defer store.Close()
	}

	// Print header
	if !args.noPosHeader {
		printPosHeader(pos, os.Args[0], args.epochFn, epochs)
	}

	// Process epochs
	nok := processEpochs(args, epochs, pos, store)
	m.PrintD(1, "%s / %s epochs solved\n", humanize.Comma(int64(nok)), humanize.Comma(int64(len(epochs))))

	return nil
}

// Read epoch file
func readEpochs(fn string) ([]*m.Epoch, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.ReadEpochs(f)
}

// Prepare output file
func prepareOutput(args cmdOpt) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(args.posFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}

	// Create output file
	posf, err := os.Create(args.posFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return posf, nil
}

// Close output file
func closeOutput(pos io.WriteCloser) {
	if pos != nil {
		pos.Close()
	}
}

// Process epochs. Returns the number of valid solutions.
func processEpochs(args cmdOpt, epochs []*m.Epoch, pos io.Writer, store *solStore) int {

	// One session carries the warm start over all epochs
	ses := m.NewSession()
	opt := setPvtOpt(&args)

	nok := 0
	for _, e := range epochs {
		if !shouldProcessEpoch(e, args) {
			continue
		}
		stat, sol, dops, err := processSingleEpoch(args, e, ses, opt)
		if err != nil {
			m.PrintB(e.Time, "Error processing epoch: %s\n", err.Error())
			continue
		}
		if store != nil {
			if err := store.Insert(e.Time, stat, sol, dops); err != nil {
				m.PrintB(e.Time, "Error storing solution: %s\n", err.Error())
			}
		}
		printPos(stat, sol, dops, pos)
		nok++
	}
	return nok
}

// Filter epochs by the processing time window
func shouldProcessEpoch(e *m.Epoch, args cmdOpt) bool {

	// Skip epochs before processing start time
	if !args.ts.IsZero() && e.Time.Before(args.ts, true) {
		return false
	}

	// Stop after processing end time
	if !args.te.IsZero() && e.Time.After(args.te, true) {
		return false
	}

	return true
}

// Process single epoch
func processSingleEpoch(args cmdOpt, e *m.Epoch, ses *m.Session, opt *m.PvtOpt) (m.PvtStat, *m.PvtSol, m.Dops, error) {

	m.PrintD(2, "\n>>> %s\n", e.Time.ToTime().UTC())

	ms, err := m.NewMeasSet(e.Meas, args.exSats...)
	if err != nil {
		return 0, nil, m.Dops{}, err
	}

	stat, sol, dops := m.CalcPvt(ses, ms, opt)
	if err := stat.Err(); err != nil {
		return stat, nil, dops, fmt.Errorf("pvt failed (%d): %w", int(stat), err)
	}

	if m.DBG_ >= 1 {
		m.PrintB(sol.Time, "%s ns=%d clk=%s drift=%s iters=%d\n", stat, sol.NumUsed,
			humanize.SIWithDigits(sol.ClkOffset, 3, "s"), humanize.SIWithDigits(sol.ClkDrift, 3, "s/s"), ses.Iters)
	}
	if m.DBG_ >= 3 {
		for _, meas := range e.Meas {
			m.PrintA("\t%s: elev=%8.3f, azim=%8.3f\n", meas.Sat, m.ToDeg(sol.Pos.Elevation(meas.SatPos)), m.ToDeg(sol.Pos.Azimuth(meas.SatPos)))
		}
	}

	return stat, sol, dops, nil
}

// nopCloser - WriteCloser that ignores close operations
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Structure to hold command line argument information
type cmdOpt struct {
	epochFn     string
	posFn       string
	dbFn        string
	simFn       string
	simEpochs   int
	noPosHeader bool
	exSats      m.SatVar
	noRaim      bool
	maxPdop     float64
	maxVel      float64
	resThres    float64
	ts          time.Time // Zero: from the first epoch
	te          time.Time // Zero: to the last epoch
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options] epochs.yaml
	%s -sim epochs.yaml [-sn 10]

[Options]
`, filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	pOpt := m.NewPvtOpt()
	flag.StringVar(&a.posFn, "o", "", "Output pos file path. If not specified, output to stdout.")
	flag.BoolVar(&a.noPosHeader, "nh", false, "Do not output header section of pos file.")
	flag.Var(&a.exSats, "ex", "List of satellites to exclude. Comma-separated satellite names without spaces like G02,G14.")
	flag.BoolVar(&a.noRaim, "nr", pOpt.DisableRaim, "Disable RAIM check and repair.")
	flag.Float64Var(&a.maxPdop, "d", pOpt.MaxPdop, "Reject the solution when PDOP exceeds this value.")
	flag.Float64Var(&a.maxVel, "mv", pOpt.MaxVel, "Reject the solution when the velocity [m/s] reaches this value. Set to 0 for no check.")
	flag.Float64Var(&a.resThres, "rt", pOpt.ResThres, "Residual threshold [m] of the RAIM check.")
	flag.StringVar(&a.dbFn, "db", "", "SQLite database file to store solutions into.")
	flag.StringVar(&a.simFn, "sim", "", "Write a simulated epoch file to this path and exit.")
	flag.IntVar(&a.simEpochs, "sn", 10, "Number of epochs written by -sim.")
	var ts_, te_ m.TimeStr
	flag.TextVar(&ts_, "ts", m.NewTimeStr(time.Time{}), "Start epoch (GPS time) specification. Enclose in quotes like -ts \"2024/02/06 00:00:00\"")
	flag.TextVar(&te_, "te", m.NewTimeStr(time.Time{}), "End epoch (GPS time) specification. Enclose in quotes like -te \"2024/02/06 01:00:00\". This epoch is also included.")
	var dbg int
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(more detailed), 4(most detailed)")
	flag.Parse()
	m.DBG_ = dbg
	a.ts = time.Time(ts_)
	a.te = time.Time(te_)
	if len(a.simFn) > 0 {
		return a, nil
	}
	if flag.NArg() != 1 {
		return a, fmt.Errorf("too less or many arguments")
	}
	a.epochFn = flag.Arg(0)
	return
}

func setPvtOpt(args *cmdOpt) *m.PvtOpt {
	opt := m.NewPvtOpt()
	opt.DisableRaim = args.noRaim
	opt.MaxPdop = args.maxPdop
	opt.MaxVel = args.maxVel
	opt.ResThres = args.resThres
	return opt
}

// Print pos file header
func printPosHeader(pos io.Writer, cmd string, epochFn string, epochs []*m.Epoch) {
	fmt.Fprintf(pos, "%% program   : %s\n", filepath.Base(cmd))
	fmt.Fprintf(pos, "%% inp file  : %s\n", epochFn)
	if len(epochs) > 0 {
		fmt.Fprintf(pos, "%% obs start : %s\n", epochStr(epochs[0].Time))
		fmt.Fprintf(pos, "%% obs end   : %s\n", epochStr(epochs[len(epochs)-1].Time))
	}
	fmt.Fprintf(pos, "%% epochs    : %s\n", humanize.Comma(int64(len(epochs))))
	fmt.Fprintf(pos, "%%  GPST                 latitude(deg) longitude(deg)  height(m)   Q  ns      clk_bias(s)    vn(m/s)    ve(m/s)    vd(m/s)       gdop       pdop       hdop       vdop stat removed\n")
}

// Return epoch date and time as string
func epochStr(t m.GTime) string {
	return fmt.Sprintf("%s(UTC) (week%d %7.1fs)(GPST)", t.ToTime().UTC().Format("2006/01/02 15:04:05.000"), t.Week, t.Sec)
}

// Output POS file line
func printPos(stat m.PvtStat, sol *m.PvtSol, dops m.Dops, pos io.Writer) {
	rcvt := m.GTime{
		Week: sol.Time.Week,
		Sec:  math.Round(sol.Time.Sec*1000) / 1000, // Round time to milliseconds
	}
	rcvtStr := rcvt.ToTime().UTC().Format("2006/01/02 15:04:05.000")
	Q := 5
	removed := "-"
	if len(sol.Removed) > 0 {
		removed = string(sol.Removed)
	}
	fmt.Fprintf(pos, "%s %13.9f %14.9f %10.4f %3d %3d %16.9f %10.4f %10.4f %10.4f %10.3f %10.3f %10.3f %10.3f %4d %7s\n",
		rcvtStr, m.ToDeg(sol.Llh.Lat), m.ToDeg(sol.Llh.Lon), sol.Llh.Hei, Q, sol.NumUsed, sol.ClkOffset,
		sol.VelNED.N, sol.VelNED.E, sol.VelNED.D, dops.Gdop, dops.Pdop, dops.Hdop, dops.Vdop, int(stat), removed)
}
