// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recorder_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/lotolab/gen"
	"github.com/zintix-labs/lotolab/recorder"
)

func TestNewTrialRecorderValidation(t *testing.T) {
	if _, err := recorder.NewTrialRecorder("lab", "", 3.5, false); err == nil {
		t.Fatal("empty profile should fail")
	}
	if _, err := recorder.NewTrialRecorder("lab", "heuristic", 0, false); err == nil {
		t.Fatal("zero stake should fail")
	}
	if _, err := recorder.NewTrialRecorder("lab", "heuristic", -1, false); err == nil {
		t.Fatal("negative stake should fail")
	}
	r, err := recorder.NewTrialRecorder("lab", "heuristic", 3.5, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.Basic == nil || r.Ranks == nil {
		t.Fatal("records not initialized")
	}
}

func TestRecordAndDone(t *testing.T) {
	r, err := recorder.NewTrialRecorder("lab", "heuristic", 3.5, false)
	if err != nil {
		t.Fatal(err)
	}
	played := gen.Combination{5, 13, 24, 31, 42}
	r.Record(recorder.TrialRow{Played: played, Rank: 0, Payout: 0})
	r.Record(recorder.TrialRow{Played: played, Rank: 13, Payout: 4.2, Fallback: true})
	r.Record(recorder.TrialRow{Played: played, Rank: 9, Payout: 14.5})

	if r.Basic.Trials != 3 || r.Basic.Wins != 2 || r.Basic.Fallbacks != 1 {
		t.Fatalf("basic counts wrong: %+v", r.Basic)
	}
	if math.Abs(r.Basic.TotalPayout-18.7) > 1e-9 {
		t.Fatalf("total payout got %f", r.Basic.TotalPayout)
	}
	if r.Ranks.Count[0] != 1 || r.Ranks.Count[13] != 1 || r.Ranks.Count[9] != 1 {
		t.Fatalf("rank counts wrong: %v", r.Ranks.Count)
	}

	rep := r.Done()
	rep.Done()
	if rep.Summary.Trials != 3 {
		t.Fatalf("report trials got %d", rep.Summary.Trials)
	}
	if math.Abs(rep.Summary.TotalStake-10.5) > 1e-9 {
		t.Fatalf("total stake got %f", rep.Summary.TotalStake)
	}
	if rep.Ranks.NoWin != 1 {
		t.Fatalf("no-win got %d", rep.Ranks.NoWin)
	}
	wantRoi := (18.7 - 10.5) / 10.5 * 100
	if math.Abs(rep.Summary.ROI-wantRoi) > 1e-9 {
		t.Fatalf("ROI got %f want %f", rep.Summary.ROI, wantRoi)
	}
}

func TestMergeTrialRecorders(t *testing.T) {
	mk := func(payouts []float64, ranks []int) *recorder.TrialRecorder {
		r, err := recorder.NewTrialRecorder("lab", "heuristic", 3.5, false)
		if err != nil {
			t.Fatal(err)
		}
		for i := range payouts {
			r.Record(recorder.TrialRow{Rank: ranks[i], Payout: payouts[i]})
		}
		return r
	}
	a := mk([]float64{0, 4.2}, []int{0, 13})
	b := mk([]float64{14.5}, []int{9})

	m, err := recorder.MergeTrialRecorders([]*recorder.TrialRecorder{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if m.Basic.Trials != 3 || m.Basic.Wins != 2 {
		t.Fatalf("merged counts wrong: %+v", m.Basic)
	}
	if math.Abs(m.Basic.TotalPayout-18.7) > 1e-9 {
		t.Fatalf("merged payout got %f", m.Basic.TotalPayout)
	}

	// 不同 profile 不可合併
	c, err := recorder.NewTrialRecorder("lab", "random", 3.5, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := recorder.MergeTrialRecorders([]*recorder.TrialRecorder{a, c}); err == nil {
		t.Fatal("different profiles should fail to merge")
	}

	if _, err := recorder.MergeTrialRecorders(nil); err == nil {
		t.Fatal("empty merge should fail")
	}
}

func TestWriteRowsCSV(t *testing.T) {
	r, err := recorder.NewTrialRecorder("lab", "heuristic", 3.5, true)
	if err != nil {
		t.Fatal(err)
	}
	r.Record(recorder.TrialRow{
		Played:      gen.Combination{5, 13, 24, 31, 42},
		PlayedStars: [2]int{3, 7},
		Drawn:       [5]int{1, 2, 3, 4, 5},
		DrawnStars:  [2]int{1, 2},
		Rank:        0,
		Payout:      0,
	})

	var buf bytes.Buffer
	if err := r.WriteRowsCSV(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "5,13,24,31,42,3,7,") {
		t.Fatalf("row content wrong: %s", lines[1])
	}

	// rows not kept: error out instead of writing an empty file
	r2, err := recorder.NewTrialRecorder("lab", "heuristic", 3.5, false)
	if err != nil {
		t.Fatal(err)
	}
	r2.Record(recorder.TrialRow{})
	if err := r2.WriteRowsCSV(&buf); err == nil {
		t.Fatal("expected error when rows are not kept")
	}
	if r2.Rows() != nil {
		t.Fatal("rows should be nil when not kept")
	}
}
