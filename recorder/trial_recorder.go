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

package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/gen"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
)

// TrialRecorder 回測紀錄員
//
// TrialRecorder 負責累計逐局結果，並透過 Done 輸出統計報表。
// 紀錄過程只做加法（可交換、可結合），因此平行 worker 各記各的，
// 最後用 MergeTrialRecorders 合併不需要任何順序保證。
type TrialRecorder struct {
	LabName string
	Profile string
	Stake   float64
	Basic   *BasicRecord
	Ranks   *RankRecord

	keepRows bool
	rows     []TrialRow
}

// BasicRecord 基本累計
type BasicRecord struct {
	Trials      int
	Wins        int
	Fallbacks   int
	TotalPayout float64
	PayoutSqSum float64 // 平方和
}

// RankRecord 各獎級落點統計（index 0 = 未中獎）
type RankRecord struct {
	Count [spec.NumRanks + 1]int
}

// TrialRow 單局結果列：出的組合、模擬開獎、獎級與獎金。
type TrialRow struct {
	Played      gen.Combination      `json:"played"`
	PlayedStars [spec.NumStars]int   `json:"played_stars"`
	Drawn       [spec.NumBalls]int   `json:"drawn"`
	DrawnStars  [spec.NumStars]int   `json:"drawn_stars"`
	Rank        int                  `json:"rank"` // 0 = 未中獎
	Payout      float64              `json:"payout"`
	Fallback    bool                 `json:"fallback"`
}

func NewTrialRecorder(labName, profile string, stake float64, keepRows bool) (*TrialRecorder, error) {
	if profile == "" {
		return nil, errs.NewFatal("profile required")
	}
	if stake <= 0 {
		return nil, errs.NewFatal(fmt.Sprintf("stake must > 0, got: %v", stake))
	}
	return &TrialRecorder{
		LabName:  labName,
		Profile:  profile,
		Stake:    stake,
		Basic:    new(BasicRecord),
		Ranks:    new(RankRecord),
		keepRows: keepRows,
	}, nil
}

// Record 累計一局。
func (r *TrialRecorder) Record(row TrialRow) {
	r.Basic.Trials++
	r.Basic.TotalPayout += row.Payout
	r.Basic.PayoutSqSum += row.Payout * row.Payout
	if row.Rank > 0 {
		r.Basic.Wins++
	}
	if row.Fallback {
		r.Basic.Fallbacks++
	}
	r.Ranks.Count[row.Rank]++
	if r.keepRows {
		r.rows = append(r.rows, row)
	}
}

// Rows 回傳逐局結果（keepRows 關閉時為 nil）。
func (r *TrialRecorder) Rows() []TrialRow { return r.rows }

// MergeTrialRecorders 合併多個 worker 的紀錄（加總即可，無順序要求）。
func MergeTrialRecorders(rs []*TrialRecorder) (*TrialRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("no recorders to merge")
	}
	r0 := rs[0]
	out, err := NewTrialRecorder(r0.LabName, r0.Profile, r0.Stake, false)
	if err != nil {
		return nil, err
	}
	for _, v := range rs {
		if v.Profile != r0.Profile {
			return nil, errs.NewFatal("merge trial record err : different profile")
		}
		if v.Stake != r0.Stake {
			return nil, errs.NewFatal("merge trial record err : different stake")
		}
		out.Basic.Trials += v.Basic.Trials
		out.Basic.Wins += v.Basic.Wins
		out.Basic.Fallbacks += v.Basic.Fallbacks
		out.Basic.TotalPayout += v.Basic.TotalPayout
		out.Basic.PayoutSqSum += v.Basic.PayoutSqSum
		for i := range out.Ranks.Count {
			out.Ranks.Count[i] += v.Ranks.Count[i]
		}
	}
	return out, nil
}

// Done 將累計值整理成統計報表。
//
// 紀錄過程只累計原始加總；最終的 ROI / CI / Std 與各獎級期望值
// 由 stats.BacktestReport.Done() 一次性計算。
func (r *TrialRecorder) Done() *stats.BacktestReport {
	n := r.Basic.Trials
	sum := &stats.SummaryReport{
		LabName:     r.LabName,
		Profile:     r.Profile,
		Trials:      n,
		Stake:       r.Stake,
		TotalStake:  float64(n) * r.Stake,
		TotalPayout: r.Basic.TotalPayout,
		PayoutSqSum: r.Basic.PayoutSqSum,
		Wins:        r.Basic.Wins,
		Fallbacks:   r.Basic.Fallbacks,
	}

	rk := &stats.RankReport{
		Rank:     make([]int, spec.NumRanks),
		Match:    make([]string, spec.NumRanks),
		Count:    make([]int, spec.NumRanks),
		Expected: make([]float64, spec.NumRanks),
		Ratio:    make([]float64, spec.NumRanks),
	}
	for i, p := range spec.PrizeTable {
		rk.Rank[i] = p.Rank
		rk.Match[i] = p.Match
		rk.Count[i] = r.Ranks.Count[p.Rank]
	}
	rk.NoWin = r.Ranks.Count[0]

	report := &stats.BacktestReport{Summary: sum, Ranks: rk}
	return report
}

// WriteRowsCSV 將逐局結果輸出成 CSV（B1..B5,E1,E2,D1..D5,F1,F2,Rank,Payout,Fallback）。
func (r *TrialRecorder) WriteRowsCSV(w io.Writer) error {
	if !r.keepRows {
		return errs.NewWarn("rows were not kept: enable keep_rows")
	}
	cw := csv.NewWriter(w)
	header := []string{"B1", "B2", "B3", "B4", "B5", "E1", "E2",
		"D1", "D2", "D3", "D4", "D5", "F1", "F2", "Rank", "Payout", "Fallback"}
	if err := cw.Write(header); err != nil {
		return errs.Wrap(err, "write csv header failed")
	}

	rec := make([]string, 0, len(header))
	for _, row := range r.rows {
		rec = rec[:0]
		for _, b := range row.Played {
			rec = append(rec, strconv.Itoa(b))
		}
		for _, s := range row.PlayedStars {
			rec = append(rec, strconv.Itoa(s))
		}
		for _, b := range row.Drawn {
			rec = append(rec, strconv.Itoa(b))
		}
		for _, s := range row.DrawnStars {
			rec = append(rec, strconv.Itoa(s))
		}
		rec = append(rec,
			strconv.Itoa(row.Rank),
			strconv.FormatFloat(row.Payout, 'f', 2, 64),
			strconv.FormatBool(row.Fallback))
		if err := cw.Write(rec); err != nil {
			return errs.Wrap(err, "write csv row failed")
		}
	}
	cw.Flush()
	return cw.Error()
}
