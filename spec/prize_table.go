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

package spec

// NumRanks 獎級數量（1..13）
const NumRanks = 13

// PrizeRank 單一獎級的靜態定義。
//
// 理論機率以分母表示（probability = 1/OneIn），平均獎金為幣值單位。
// 本表為 process-wide 常數，只供查表，絕不由觀測資料推導。
type PrizeRank struct {
	Rank   int     `json:"rank"   yaml:"rank"`
	Match  string  `json:"match"  yaml:"match"`
	Balls  int     `json:"balls"  yaml:"balls"`
	Stars  int     `json:"stars"  yaml:"stars"`
	OneIn  float64 `json:"one_in" yaml:"one_in"`
	Payout float64 `json:"payout" yaml:"payout"`
}

// PrizeTable 完整獎級表。
//
// 請勿修改預設值：獎級、機率、平均獎金皆為遊戲規則的一部分。
var PrizeTable = [NumRanks]PrizeRank{
	{Rank: 1, Match: "5+2", Balls: 5, Stars: 2, OneIn: 139838160, Payout: 50000000},
	{Rank: 2, Match: "5+1", Balls: 5, Stars: 1, OneIn: 6991908, Payout: 300000},
	{Rank: 3, Match: "5+0", Balls: 5, Stars: 0, OneIn: 3107515, Payout: 50000},
	{Rank: 4, Match: "4+2", Balls: 4, Stars: 2, OneIn: 621503, Payout: 3000},
	{Rank: 5, Match: "4+1", Balls: 4, Stars: 1, OneIn: 31075, Payout: 150},
	{Rank: 6, Match: "3+2", Balls: 3, Stars: 2, OneIn: 14125, Payout: 80},
	{Rank: 7, Match: "4+0", Balls: 4, Stars: 0, OneIn: 13811, Payout: 60},
	{Rank: 8, Match: "2+2", Balls: 2, Stars: 2, OneIn: 985, Payout: 20},
	{Rank: 9, Match: "3+1", Balls: 3, Stars: 1, OneIn: 706, Payout: 15},
	{Rank: 10, Match: "3+0", Balls: 3, Stars: 0, OneIn: 314, Payout: 12},
	{Rank: 11, Match: "1+2", Balls: 1, Stars: 2, OneIn: 188, Payout: 8},
	{Rank: 12, Match: "2+1", Balls: 2, Stars: 1, OneIn: 49, Payout: 5},
	{Rank: 13, Match: "2+0", Balls: 2, Stars: 0, OneIn: 22, Payout: 4},
}

// rankMap 以 (主球命中數, 星號命中數) 反查獎級，建表一次 O(1) 查詢。
var rankMap = func() map[[2]int]int {
	m := make(map[[2]int]int, NumRanks)
	for _, p := range PrizeTable {
		m[[2]int{p.Balls, p.Stars}] = p.Rank
	}
	return m
}()

// RankFor 依主球/星號命中數回傳獎級（1..13），未中獎回傳 0。
//
// 命中數組合不在表內（例如 1+0、0+2）即未中獎；這是規則的一部分，不是錯誤。
func RankFor(ballsMatch, starsMatch int) int {
	return rankMap[[2]int{ballsMatch, starsMatch}]
}

// RankForBallsOnly 只看主球命中數的簡化查表（星號視為 0 命中）。
//
// 對應 ScoreStars=false 的模擬模式：星號有抽樣但不參與評分。
func RankForBallsOnly(ballsMatch int) int {
	return rankMap[[2]int{ballsMatch, 0}]
}

// PayoutForRank 回傳獎級的平均獎金；rank 0 或超界回傳 0。
func PayoutForRank(rank int) float64 {
	if rank < 1 || rank > NumRanks {
		return 0
	}
	return PrizeTable[rank-1].Payout
}

// ProbabilityForRank 回傳獎級的理論機率；rank 0 或超界回傳 0。
func ProbabilityForRank(rank int) float64 {
	if rank < 1 || rank > NumRanks {
		return 0
	}
	return 1.0 / PrizeTable[rank-1].OneIn
}

// WinProbability 回傳任一獎級命中的理論總機率（各獎級互斥，直接相加）。
func WinProbability() float64 {
	p := 0.0
	for _, e := range PrizeTable {
		p += 1.0 / e.OneIn
	}
	return p
}

// ExpectedPayout 回傳單注的理論期望獎金 Σ p·payout。
func ExpectedPayout() float64 {
	ev := 0.0
	for _, e := range PrizeTable {
		ev += e.Payout / e.OneIn
	}
	return ev
}

// TheoreticalROI 回傳於固定注金下的理論 ROI（百分比）。
//
// stake <= 0 回傳 0，不除以零。
func TheoreticalROI(stake float64) float64 {
	if stake <= 0 {
		return 0
	}
	return (ExpectedPayout() - stake) / stake * 100.0
}
