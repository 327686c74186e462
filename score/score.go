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

// Package score 實作號碼評分函數。
//
// 三個評分都是純函數：輸入 History 快照與參數，輸出整個 [1,50] 域的分數表。
// 同一快照重複呼叫結果完全相同（無隱藏狀態），退化情境一律回 0 分，不除零。
package score

import (
	"sort"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/spec"
)

// Map 每個號碼的分數，索引 1..spec.BallMax（索引 0 不使用）。
//
// 固定大小的值型別：複製便宜、無共享可變狀態。
type Map [spec.BallMax + 1]float64

// RecurrenceAmplitude 計算「頻率 + 振幅」分數。
//
// 取最後 window 期的主球攤平成樣本 W（含重複）：
//
//	frequency(n) = count(n in W) / |W|
//	amplitude(n) = 1 - |n - median(W)| / range(W)   （range(W)=0 時全域振幅為 0）
//	score(n)     = alpha·frequency(n) + beta·amplitude(n)
//
// window 大於可用期數時夾到全歷史。
func RecurrenceAmplitude(h *draws.History, window int, alpha, beta float64) Map {
	var m Map
	tail := h.Tail(window)

	flat := make([]int, 0, len(tail)*spec.NumBalls)
	var count [spec.BallMax + 1]int
	for _, d := range tail {
		for _, b := range d.Balls {
			flat = append(flat, b)
			count[b]++
		}
	}

	med := median(flat)
	lo, hi := flat[0], flat[0]
	for _, v := range flat {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	rng := float64(hi - lo)

	total := float64(len(flat))
	for n := spec.BallMin; n <= spec.BallMax; n++ {
		freq := float64(count[n]) / total
		amp := 0.0
		if rng > 0 {
			amp = 1 - abs(float64(n)-med)/rng
		}
		m[n] = alpha*freq + beta*amp
	}
	return m
}

// Gap 計算「落後度」分數：目前未開出的期距除以歷史平均期距。
//
//	score(n) = current_gap / average_gap
//
// 從未出現過、或平均期距為 0 的號碼一律 0 分（不是無限大、不是錯誤）。
func Gap(h *draws.History) Map {
	var m Map
	next := h.NextSeq()

	for n := spec.BallMin; n <= spec.BallMax; n++ {
		seqs := h.Appearances(n)
		if len(seqs) == 0 {
			continue // 從未出現：0 分
		}

		avg := 1.0
		if len(seqs) > 1 {
			sum := 0
			for i := 1; i < len(seqs); i++ {
				sum += seqs[i] - seqs[i-1]
			}
			avg = float64(sum) / float64(len(seqs)-1)
		}
		if avg <= 0 {
			continue
		}
		current := float64(next - 1 - seqs[len(seqs)-1])
		m[n] = current / avg
	}
	return m
}

// MovingAverage 計算「滑動頻率」分數：最後 window 期中包含 n 的比例。
//
// 分母固定為 window（即使可用期數較少），與原始分析流程一致。
func MovingAverage(h *draws.History, window int) Map {
	var m Map
	if window < 1 {
		return m
	}
	for _, d := range h.Tail(window) {
		for _, b := range d.Balls {
			m[b] += 1.0 / float64(window)
		}
	}
	return m
}

// Combined 依 ScoreSetting 的權重合成三個分數。
//
// 權重是啟發式的調參常數（建構期設定），不是每次呼叫的輸入。
func Combined(h *draws.History, s spec.ScoreSetting) Map {
	ra := RecurrenceAmplitude(h, s.Window, s.Alpha, s.Beta)
	gp := Gap(h)
	ma := MovingAverage(h, s.Window)

	var m Map
	for n := spec.BallMin; n <= spec.BallMax; n++ {
		m[n] = s.WRecur*ra[n] + s.WGap*gp[n] + s.WMove*ma[n]
	}
	return m
}

// Rank 回傳依分數遞減排序的號碼列表。
//
// 平手時號碼小的在前（穩定 tie-break：掃描順序即 1..50）。
func (m Map) Rank() []int {
	order := make([]int, 0, spec.BallMax)
	for n := spec.BallMin; n <= spec.BallMax; n++ {
		order = append(order, n)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return m[order[i]] > m[order[j]]
	})
	return order
}

// median 回傳樣本中位數（偶數長度取中間兩數平均）。呼叫端保證非空。
func median(xs []int) float64 {
	s := make([]int, len(xs))
	copy(s, xs)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
