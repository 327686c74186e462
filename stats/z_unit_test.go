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

package stats_test

import (
	"math"
	"testing"
	"time"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
)

// buildBacktestReport constructs a report from per-trial payouts and ranks
// (rank 0 = no win) the way a recorder would accumulate them.
func buildBacktestReport(profile string, stake float64, payouts []float64, ranks []int) *stats.BacktestReport {
	var totalPayout, sqSum float64
	wins := 0
	rankCount := make([]int, spec.NumRanks+1)
	for i, p := range payouts {
		totalPayout += p
		sqSum += p * p
		if ranks[i] > 0 {
			wins++
		}
		rankCount[ranks[i]]++
	}

	rk := &stats.RankReport{
		Rank:     make([]int, spec.NumRanks),
		Match:    make([]string, spec.NumRanks),
		Count:    make([]int, spec.NumRanks),
		Expected: make([]float64, spec.NumRanks),
		Ratio:    make([]float64, spec.NumRanks),
	}
	for i, pr := range spec.PrizeTable {
		rk.Rank[i] = pr.Rank
		rk.Match[i] = pr.Match
		rk.Count[i] = rankCount[pr.Rank]
	}
	rk.NoWin = rankCount[0]

	rep := &stats.BacktestReport{
		Summary: &stats.SummaryReport{
			LabName:     "TestLab",
			Profile:     profile,
			Trials:      len(payouts),
			Stake:       stake,
			TotalStake:  float64(len(payouts)) * stake,
			TotalPayout: totalPayout,
			PayoutSqSum: sqSum,
			Wins:        wins,
		},
		Ranks: rk,
	}
	rep.Done()
	return rep
}

func buildAltHistory(n int) *draws.History {
	a := []int{13, 20, 30, 40, 50}
	b := []int{1, 2, 3, 24, 35}
	stars := []int{1, 2}
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := make([]draws.Draw, 0, n)
	for i := 0; i < n; i++ {
		balls := a
		if i%2 == 1 {
			balls = b
		}
		d, err := draws.New(i+1, date.AddDate(0, 0, i*3), balls, stars)
		if err != nil {
			panic(err)
		}
		ds = append(ds, d)
	}
	h, err := draws.NewHistory(ds)
	if err != nil {
		panic(err)
	}
	return h
}

func TestBacktestReportCoreMetrics(t *testing.T) {
	stake := 3.5
	rep := buildBacktestReport("heuristic", stake, []float64{0, 7.0}, []int{0, 13})

	// ROI = (7 - 7) / 7 * 100 = 0
	if got := rep.Roi(); math.Abs(got) > 1e-12 {
		t.Fatalf("ROI got %.12f want 0", got)
	}

	// 樣本變異數: (0-3.5)^2 + (7-3.5)^2 除以 n-1
	wantStd := math.Sqrt((12.25 + 12.25) / 1)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("Std got %.12f want %.12f", got, wantStd)
	}

	ci := rep.Ci()
	if ci.Lo >= ci.Hi {
		t.Fatalf("CI not ordered: [%f,%f]", ci.Lo, ci.Hi)
	}
	if math.Abs((ci.Lo+ci.Hi)/2-rep.Summary.ROI) > 1e-9 {
		t.Fatalf("CI not centered on ROI")
	}

	if rep.Summary.WinRate != 0.5 {
		t.Fatalf("WinRate got %f want 0.5", rep.Summary.WinRate)
	}
	if rep.Summary.TheoWinRate != spec.WinProbability() {
		t.Fatalf("TheoWinRate mismatch")
	}

	// Rank 13 期望次數 = n * p
	for i, r := range rep.Ranks.Rank {
		if r != 13 {
			continue
		}
		want := 2 * spec.ProbabilityForRank(13)
		if math.Abs(rep.Ranks.Expected[i]-want) > 1e-12 {
			t.Fatalf("Expected[13] got %f want %f", rep.Ranks.Expected[i], want)
		}
	}

	rep.Done() // idempotent
	if rep.Summary.WinRate != 0.5 {
		t.Fatalf("WinRate changed after second Done")
	}
}

func TestCompareReports(t *testing.T) {
	stake := 3.5
	a := buildBacktestReport("heuristic", stake, []float64{0, 7.0, 0, 0}, []int{0, 13, 0, 0})
	b := buildBacktestReport("random", stake, []float64{0, 0, 0, 0}, []int{0, 0, 0, 0})

	c := stats.CompareReports(a, b)
	if c.A.Profile != "heuristic" || c.B.Profile != "random" {
		t.Fatalf("profiles misplaced")
	}
	if math.Abs(c.RoiDiff-(a.Summary.ROI-b.Summary.ROI)) > 1e-12 {
		t.Fatalf("RoiDiff got %f", c.RoiDiff)
	}
	if math.Abs(c.WinRateDiff.Hat-0.25) > 1e-12 {
		t.Fatalf("WinRateDiff got %f want 0.25", c.WinRateDiff.Hat)
	}
	if c.SmallRanks.CountA != 1 || c.SmallRanks.CountB != 0 {
		t.Fatalf("small rank split got A=%d B=%d", c.SmallRanks.CountA, c.SmallRanks.CountB)
	}
	if c.BigRanks.CountA != 0 {
		t.Fatalf("big rank split got A=%d", c.BigRanks.CountA)
	}

	// 同一份報告對照自己: 差為 0 且 CI 必然重疊
	self := stats.CompareReports(a, a)
	if self.RoiDiff != 0 || !self.RoiOverlap {
		t.Fatalf("self comparison should be neutral")
	}
}

func TestHypothesisOnDegenerateHistory(t *testing.T) {
	h := buildAltHistory(40)

	// 只有 10 個號碼出現過，均勻性必然被拒絕
	uni := stats.ChiSquareUniformity(h)
	if !uni.Rejected {
		t.Fatalf("uniformity should reject, p=%f", uni.PValue)
	}
	if uni.PValue < 0 || uni.PValue > 1 {
		t.Fatalf("p value out of range: %f", uni.PValue)
	}

	// 總和只有兩個值，常態假設也該被拒絕
	ks := stats.KSNormalSums(h)
	if !ks.Rejected {
		t.Fatalf("ks should reject two-point sums, p=%f", ks.PValue)
	}

	// 13 每隔一期出現一次，lag-1 自相關強烈為負
	ac := stats.SacredAutocorrelation(h, 13)
	if !ac.Rejected {
		t.Fatalf("alternating sacred should reject independence, r1=%f", ac.Stat)
	}
	if ac.Stat >= 0 {
		t.Fatalf("alternating sequence should have negative autocorrelation, got %f", ac.Stat)
	}

	full := stats.TestHistory(h, 13)
	if full.Uniformity.PValue != uni.PValue {
		t.Fatalf("TestHistory should wrap individual tests")
	}
}

func TestSacredAutocorrelationDegenerate(t *testing.T) {
	// 每期都含 13: 序列退化, 不可檢定
	a := []int{13, 20, 30, 40, 50}
	stars := []int{1, 2}
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := make([]draws.Draw, 0, 10)
	for i := 0; i < 10; i++ {
		d, err := draws.New(i+1, date.AddDate(0, 0, i), a, stars)
		if err != nil {
			t.Fatal(err)
		}
		ds = append(ds, d)
	}
	h, err := draws.NewHistory(ds)
	if err != nil {
		t.Fatal(err)
	}
	ac := stats.SacredAutocorrelation(h, 13)
	if ac.Rejected || ac.PValue != 1 {
		t.Fatalf("degenerate sequence should not reject, p=%f", ac.PValue)
	}
}

func TestAnalyzeTickets(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d1, err := draws.New(1, date, []int{13, 20, 30, 40, 50}, []int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	d2, err := draws.New(2, date.AddDate(0, 0, 3), []int{1, 2, 3, 24, 35}, []int{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	ts := []draws.Ticket{
		{Draw: d1, Rank: 13, Payout: 4.2},
		{Draw: d2, Rank: 0, Payout: 0},
	}

	an := stats.AnalyzeTickets(ts, 3.5, 13)
	if an.Tickets != 2 || an.Wins != 1 {
		t.Fatalf("counts got tickets=%d wins=%d", an.Tickets, an.Wins)
	}
	// invested = 7, won = 4.2, ROI = -40%
	if math.Abs(an.ROI-(-40.0)) > 1e-9 {
		t.Fatalf("ROI got %f want -40", an.ROI)
	}
	if an.SacredRate != 0.5 {
		t.Fatalf("SacredRate got %f want 0.5", an.SacredRate)
	}
	if an.RankCount[13] != 1 || an.RankCount[0] != 1 {
		t.Fatalf("rank counts wrong: %v", an.RankCount)
	}
	if an.WinRate.CI.Lo > an.WinRate.Hat || an.WinRate.CI.Hi < an.WinRate.Hat {
		t.Fatalf("win rate CI does not cover estimate")
	}

	empty := stats.AnalyzeTickets(nil, 3.5, 13)
	if empty.ROI != 0 || empty.Tickets != 0 {
		t.Fatalf("empty analysis should be zeroed")
	}
}
