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

package spec_test

import (
	"math"
	"testing"

	"github.com/zintix-labs/lotolab/spec"
)

func TestZoneOf(t *testing.T) {
	cases := []struct{ n, zone int }{
		{1, 1}, {10, 1}, {11, 2}, {20, 2}, {21, 3}, {30, 3},
		{31, 4}, {40, 4}, {41, 5}, {50, 5},
		{0, 0}, {51, 0}, {-3, 0},
	}
	for _, c := range cases {
		if got := spec.ZoneOf(c.n); got != c.zone {
			t.Fatalf("ZoneOf(%d) = %d, want %d", c.n, got, c.zone)
		}
	}
}

func TestRankFor(t *testing.T) {
	if got := spec.RankFor(5, 2); got != 1 {
		t.Fatalf("5+2 should be rank 1, got %d", got)
	}
	if got := spec.RankFor(2, 0); got != 13 {
		t.Fatalf("2+0 should be rank 13, got %d", got)
	}
	// 不在表內的命中組合就是未中獎
	for _, c := range [][2]int{{1, 0}, {0, 2}, {0, 0}, {1, 1}, {0, 1}} {
		if got := spec.RankFor(c[0], c[1]); got != 0 {
			t.Fatalf("%d+%d should be no win, got rank %d", c[0], c[1], got)
		}
	}
}

func TestRankForBallsOnly(t *testing.T) {
	cases := []struct{ balls, rank int }{
		{5, 3}, {4, 7}, {3, 10}, {2, 13}, {1, 0}, {0, 0},
	}
	for _, c := range cases {
		if got := spec.RankForBallsOnly(c.balls); got != c.rank {
			t.Fatalf("RankForBallsOnly(%d) = %d, want %d", c.balls, got, c.rank)
		}
	}
}

func TestPayoutAndProbabilityBounds(t *testing.T) {
	if spec.PayoutForRank(0) != 0 || spec.PayoutForRank(spec.NumRanks+1) != 0 {
		t.Fatal("out-of-range rank must pay 0")
	}
	if spec.ProbabilityForRank(0) != 0 || spec.ProbabilityForRank(spec.NumRanks+1) != 0 {
		t.Fatal("out-of-range rank must have probability 0")
	}
	for r := 1; r <= spec.NumRanks; r++ {
		if spec.PayoutForRank(r) <= 0 {
			t.Fatalf("rank %d payout must be positive", r)
		}
		if p := spec.ProbabilityForRank(r); p <= 0 || p >= 1 {
			t.Fatalf("rank %d probability out of (0,1): %f", r, p)
		}
	}
}

func TestWinProbability(t *testing.T) {
	p := spec.WinProbability()
	sum := 0.0
	for r := 1; r <= spec.NumRanks; r++ {
		sum += spec.ProbabilityForRank(r)
	}
	if math.Abs(p-sum) > 1e-15 {
		t.Fatalf("WinProbability %v != rank sum %v", p, sum)
	}
	// EuroMillions 任一獎級的理論命中率約 4.8%
	if p < 0.045 || p > 0.055 {
		t.Fatalf("win probability out of expected band: %f", p)
	}
}

func TestTheoreticalROI(t *testing.T) {
	if spec.TheoreticalROI(0) != 0 || spec.TheoreticalROI(-1) != 0 {
		t.Fatal("non-positive stake must return 0")
	}
	roi := spec.TheoreticalROI(3.50)
	want := (spec.ExpectedPayout() - 3.50) / 3.50 * 100.0
	if math.Abs(roi-want) > 1e-12 {
		t.Fatalf("roi %v, want %v", roi, want)
	}
	// 彩券的期望報酬必為負
	if roi >= 0 {
		t.Fatalf("lottery ROI should be negative, got %f", roi)
	}
}

func TestGetLabSettingByYAMLDefaults(t *testing.T) {
	raw := []byte("lab_name: demo\ndataset_id: 1\ndraws_file: d.csv\n")
	ls, err := spec.GetLabSettingByYAML(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ls.Score.Window != 7 || ls.Score.Alpha != 0.5 || ls.Score.Beta != 0.5 {
		t.Fatalf("score defaults not filled: %+v", ls.Score)
	}
	if ls.Score.WRecur != 0.4 || ls.Score.WGap != 0.3 || ls.Score.WMove != 0.3 {
		t.Fatalf("combined weight defaults not filled: %+v", ls.Score)
	}
	c := ls.Constraint
	if c.SumMin != 90 || c.SumMax != 150 || c.ZoneMax != 2 || c.FocusZone != 3 {
		t.Fatalf("constraint defaults not filled: %+v", c)
	}
	if c.SacredNumber != 13 || c.MaxOffsets != 40 {
		t.Fatalf("constraint defaults not filled: %+v", c)
	}
	if ls.Sim.Trials != 10000 || ls.Sim.Workers != 1 || ls.Sim.Stake != 3.50 {
		t.Fatalf("sim defaults not filled: %+v", ls.Sim)
	}
	// 缺欄位時 ScoreStars 預設開啟
	if !ls.Sim.ScoreStars {
		t.Fatal("score_stars should default to true")
	}
}

func TestGetLabSettingByYAMLScoreStarsExplicitFalse(t *testing.T) {
	raw := []byte("lab_name: demo\ndataset_id: 1\ndraws_file: d.csv\nsim:\n  score_stars: false\n")
	ls, err := spec.GetLabSettingByYAML(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ls.Sim.ScoreStars {
		t.Fatal("explicit score_stars: false must be honored")
	}
}

func TestGetLabSettingByYAMLRejectsBadSettings(t *testing.T) {
	cases := []string{
		"lab_name: x\ndataset_id: 1\ndraws_file: d.csv\nconstraint:\n  sacred: 99\n",
		"lab_name: x\ndataset_id: 1\ndraws_file: d.csv\nconstraint:\n  sum_min: 200\n  sum_max: 100\n",
		"lab_name: x\ndataset_id: 1\ndraws_file: d.csv\nscore:\n  window: -1\n",
		"lab_name: x\ndataset_id: 1\ndraws_file: d.csv\nconstraint:\n  focus_zone: 9\n",
	}
	for i, raw := range cases {
		if _, err := spec.GetLabSettingByYAML([]byte(raw)); err == nil {
			t.Fatalf("case %d: invalid setting should be rejected", i)
		}
	}
}

func TestGetLabSettingByJSON(t *testing.T) {
	raw := []byte(`{"lab_name":"demo","dataset_id":2,"draws_file":"d.csv","sim":{"trials":500}}`)
	ls, err := spec.GetLabSettingByJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ls.DatasetID != 2 || ls.Sim.Trials != 500 {
		t.Fatalf("unexpected setting: %+v", ls)
	}
	if ls.Constraint.SacredNumber != 13 {
		t.Fatal("defaults should be filled for json too")
	}
}

func TestDefaultSettingIsValid(t *testing.T) {
	ls := spec.Default()
	if ls.Score.Window != 7 || ls.Constraint.SacredNumber != 13 {
		t.Fatalf("unexpected defaults: %+v", ls)
	}
	if !ls.Sim.ScoreStars {
		t.Fatal("default setting should score stars")
	}
}
