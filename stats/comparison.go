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
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// Comparison 兩組回測的對照評估
//
// 固定把啟發式結果放 A、隨機基準放 B。兩邊的理論中獎率相同，
// 差異只會來自抽樣波動；RoiOverlap 為 true 代表沒有統計上的優勢證據。
type Comparison struct {
	A *SummaryReport `json:"A"`
	B *SummaryReport `json:"B"`

	RoiDiff     float64   `json:"RoiDiff"`     // A - B，百分比
	RoiOverlap  bool      `json:"RoiOverlap"`  // 95% CI 是否重疊
	WinRateDiff PointStat `json:"WinRateDiff"` // A - B 中獎率差與其 95% CI

	SmallRanks RankSplit `json:"SmallRanks"` // 獎級 9..13
	BigRanks   RankSplit `json:"BigRanks"`   // 獎級 1..8
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat"`
	CI  CI      `json:"CI"`
}

// RankSplit 依獎級分組的命中次數對照
type RankSplit struct {
	CountA int     `json:"CountA"`
	CountB int     `json:"CountB"`
	RateA  float64 `json:"RateA"`
	RateB  float64 `json:"RateB"`
}

// ============================================================
// ** 對外 : 對照評估 **
// ============================================================

// CompareReports 對照兩組回測報告
//
// 1. ROI 敘事 : 兩邊 ROI 差與 95% CI 是否重疊
//
// 2. WinRate 敘事 : 中獎率差的點估計與 CI（兩比例差的常態近似）
//
// 3. Rank 敘事 : 小獎(9..13)與大獎(1..8)的命中次數對照
func CompareReports(a, b *BacktestReport) *Comparison {
	a.Done()
	b.Done()

	out := &Comparison{A: a.Summary, B: b.Summary}
	out.RoiDiff = a.Summary.ROI - b.Summary.ROI
	out.RoiOverlap = a.Summary.RoiCI.Lo <= b.Summary.RoiCI.Hi && b.Summary.RoiCI.Lo <= a.Summary.RoiCI.Hi

	// 兩比例差: pA - pB, SE = sqrt(pA(1-pA)/nA + pB(1-pB)/nB)
	pA, nA := a.Summary.WinRate, float64(a.Summary.Trials)
	pB, nB := b.Summary.WinRate, float64(b.Summary.Trials)
	diff := pA - pB
	se := 0.0
	if nA > 0 && nB > 0 {
		se = math.Sqrt(pA*(1-pA)/nA + pB*(1-pB)/nB)
	}
	out.WinRateDiff = PointStat{
		Hat: diff,
		CI:  CI{Lo: diff - 1.96*se, Hi: diff + 1.96*se},
	}

	out.SmallRanks = rankSplit(a, b, 9, 13)
	out.BigRanks = rankSplit(a, b, 1, 8)
	return out
}

// WinRateCI 回傳中獎率的 Clopper-Pearson 95% 信賴區間
func (s *SummaryReport) WinRateCI() PointStat {
	hat, ci := proportionCICP(s.Wins, s.Trials, 0.95)
	return PointStat{Hat: hat, CI: ci}
}

func rankSplit(a, b *BacktestReport, lo, hi int) RankSplit {
	var rs RankSplit
	for i, r := range a.Ranks.Rank {
		if r >= lo && r <= hi {
			rs.CountA += a.Ranks.Count[i]
			rs.CountB += b.Ranks.Count[i]
		}
	}
	if a.Summary.Trials > 0 {
		rs.RateA = float64(rs.CountA) / float64(a.Summary.Trials)
	}
	if b.Summary.Trials > 0 {
		rs.RateB = float64(rs.CountB) / float64(b.Summary.Trials)
	}
	return rs
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper-Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (c *Comparison) Out() {
	fmt.Println("=== Profile Comparison ===")
	keys := []string{
		"ROI A",
		"ROI B",
		"ROI Diff",
		"ROI CI Overlap",
		"WinRate Diff",
		"Small Ranks (9-13)",
		"Big Ranks (1-8)",
	}
	msg := map[string]string{
		"ROI A":              fmt.Sprintf("%.2f%% (%s)", c.A.ROI, c.A.Profile),
		"ROI B":              fmt.Sprintf("%.2f%% (%s)", c.B.ROI, c.B.Profile),
		"ROI Diff":           fmt.Sprintf("%.2f%%", c.RoiDiff),
		"ROI CI Overlap":     fmt.Sprintf("%t", c.RoiOverlap),
		"WinRate Diff":       fmtHatCIpct01(c.WinRateDiff.Hat, c.WinRateDiff.CI),
		"Small Ranks (9-13)": fmt.Sprintf("A: %d (%.4f%%) | B: %d (%.4f%%)", c.SmallRanks.CountA, 100*c.SmallRanks.RateA, c.SmallRanks.CountB, 100*c.SmallRanks.RateB),
		"Big Ranks (1-8)":    fmt.Sprintf("A: %d (%.4f%%) | B: %d (%.4f%%)", c.BigRanks.CountA, 100*c.BigRanks.RateA, c.BigRanks.CountB, 100*c.BigRanks.RateB),
	}
	printTable("Profile Comparison", keys, msg)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}
