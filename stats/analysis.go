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

package stats

import (
	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/spec"
)

// TicketAnalysis 實際投注紀錄的分析結果
type TicketAnalysis struct {
	Tickets     int       `json:"Tickets"`
	Stake       float64   `json:"Stake"`
	Invested    float64   `json:"Invested"`
	Won         float64   `json:"Won"`
	ROI         float64   `json:"ROI"` // 百分比
	Wins        int       `json:"Wins"`
	WinRate     PointStat `json:"WinRate"` // 含 Clopper-Pearson 95% CI
	TheoWinRate float64   `json:"TheoWinRate"`
	TheoROI     float64   `json:"TheoROI"`
	RankCount   []int     `json:"RankCount"` // index = 獎級, 0 = 未中獎
	SacredRate  float64   `json:"SacredRate"`
	SumMean     float64   `json:"SumMean"`
}

// AnalyzeTickets 彙整實際投注紀錄
//
// ROI 以已知的 Rank/Payout 欄位計算；同時回報幸運號出現率與
// 組合總和的平均值，方便和產生器設定對照。
func AnalyzeTickets(ts []draws.Ticket, stake float64, sacred int) *TicketAnalysis {
	out := &TicketAnalysis{
		Tickets:     len(ts),
		Stake:       stake,
		TheoWinRate: spec.WinProbability(),
		TheoROI:     spec.TheoreticalROI(stake),
		RankCount:   make([]int, spec.NumRanks+1),
	}
	if len(ts) == 0 {
		return out
	}

	sacredHits := 0
	sumTotal := 0
	for _, t := range ts {
		out.Won += t.Payout
		if t.Rank >= 0 && t.Rank <= spec.NumRanks {
			out.RankCount[t.Rank]++
		}
		if t.Rank > 0 {
			out.Wins++
		}
		if t.HasBall(sacred) {
			sacredHits++
		}
		sumTotal += t.SumBalls()
	}

	out.Invested = float64(len(ts)) * stake
	if out.Invested > 0 {
		out.ROI = (out.Won - out.Invested) / out.Invested * 100.0
	}
	hat, ci := proportionCICP(out.Wins, len(ts), 0.95)
	out.WinRate = PointStat{Hat: hat, CI: ci}
	out.SacredRate = float64(sacredHits) / float64(len(ts))
	out.SumMean = float64(sumTotal) / float64(len(ts))
	return out
}
