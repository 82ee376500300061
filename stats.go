//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpc

import (
	"fmt"
	"os"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/viethuyvu/MP-SPDZ/p2p"
)

// FileSize formats byte counts for reports.
type FileSize uint64

func (s FileSize) String() string {
	if s > 1000*1000*1000*1000 {
		return fmt.Sprintf("%dTB", s/(1000*1000*1000*1000))
	} else if s > 1000*1000*1000 {
		return fmt.Sprintf("%dGB", s/(1000*1000*1000))
	} else if s > 1000*1000 {
		return fmt.Sprintf("%dMB", s/(1000*1000))
	} else if s > 1000 {
		return fmt.Sprintf("%dkB", s/1000)
	} else {
		return fmt.Sprintf("%dB", s)
	}
}

// Stats renders a diagnostics report over protocol counters and
// network I/O statistics.
type Stats struct {
	Start    time.Time
	Counters *Counters
}

// NewStats creates a statistics report for the argument counters.
func NewStats(counters *Counters) *Stats {
	return &Stats{
		Start:    time.Now(),
		Counters: counters,
	}
}

// Print prints the diagnostics report to standard output.
func (s *Stats) Print(stats p2p.IOStats) {
	elapsed := time.Since(s.Start)

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Counter").SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.MR)

	rows := []struct {
		label string
		value int64
	}{
		{"Rounds", s.Counters.Rounds},
		{"Multiplications", s.Counters.Mults},
		{"Dot products", s.Counters.DotProds},
		{"Truncations", s.Counters.Truncs},
		{"Random values", s.Counters.Randoms},
		{"Openings", s.Counters.Opens},
		{"Inputs", s.Counters.Inputs},
	}
	for _, r := range rows {
		row := tab.Row()
		row.Column(r.label)
		row.Column(fmt.Sprintf("%d", r.value))
	}
	if s.Counters.BoundFails > 0 {
		row := tab.Row()
		row.Column("Bound failures").SetFormat(tabulate.FmtBold)
		row.Column(fmt.Sprintf("%d", s.Counters.BoundFails)).
			SetFormat(tabulate.FmtBold)
	}

	row := tab.Row()
	row.Column("Time").SetFormat(tabulate.FmtItalic)
	row.Column(elapsed.String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("Sent").SetFormat(tabulate.FmtItalic)
	row.Column(FileSize(stats.Sent.Load()).String()).
		SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("Received").SetFormat(tabulate.FmtItalic)
	row.Column(FileSize(stats.Recvd.Load()).String()).
		SetFormat(tabulate.FmtItalic)

	tab.Print(os.Stdout)
}
