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

// Package gen 實作組合生成：評分排序、約束檢查、保底隨機。
package gen

import (
	"sort"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/score"
	"github.com/zintix-labs/lotolab/spec"
)

// Combination 一組候選的 5 碼組合，遞增排序存放。
type Combination [spec.NumBalls]int

// NewCombination 以任意順序的 5 碼建立組合（就地排序，不驗證範圍）。
func NewCombination(ns []int) Combination {
	var c Combination
	copy(c[:], ns)
	sort.Ints(c[:])
	return c
}

// Sum 回傳號碼總和。
func (c Combination) Sum() int {
	s := 0
	for _, n := range c {
		s += n
	}
	return s
}

// Contains 回傳組合是否包含 n。
func (c Combination) Contains(n int) bool {
	for _, v := range c {
		if v == n {
			return true
		}
	}
	return false
}

// Matches 回傳與一期開獎主球的交集數（0..5）。兩邊都已排序，雙指標掃描。
func (c Combination) Matches(balls [spec.NumBalls]int) int {
	i, j, m := 0, 0, 0
	for i < len(c) && j < len(balls) {
		switch {
		case c[i] == balls[j]:
			m++
			i++
			j++
		case c[i] < balls[j]:
			i++
		default:
			j++
		}
	}
	return m
}

// ============================================================
// ** 約束檢查：皆為純函數，無副作用 **
// ============================================================

// ValidSum 總和約束：pass iff SumMin <= sum <= SumMax。
func ValidSum(c Combination, cs spec.ConstraintSetting) bool {
	s := c.Sum()
	return s >= cs.SumMin && s <= cs.SumMax
}

// ValidZones 分區配額：focus 區至少 FocusZoneMin 顆，所有區最多 ZoneMax 顆。
func ValidZones(c Combination, cs spec.ConstraintSetting) bool {
	var count [spec.NumZones + 1]int
	for _, n := range c {
		count[spec.ZoneOf(n)]++
	}
	if count[cs.FocusZone] < cs.FocusZoneMin {
		return false
	}
	for z := 1; z <= spec.NumZones; z++ {
		if count[z] > cs.ZoneMax {
			return false
		}
	}
	return true
}

// ValidParity 奇偶/整除約束：偶數顆數落在 [EvenMin,EvenMax]，
// 且至少一顆 3 的倍數、至少一顆 5 的倍數。
func ValidParity(c Combination, cs spec.ConstraintSetting) bool {
	even, div3, div5 := 0, 0, 0
	for _, n := range c {
		if n%2 == 0 {
			even++
		}
		if n%3 == 0 {
			div3++
		}
		if n%5 == 0 {
			div5++
		}
	}
	if even < cs.EvenMin || even > cs.EvenMax {
		return false
	}
	return div3 >= 1 && div5 >= 1
}

// Unique 可選約束：組合未曾在歷史（或其尾端窗格）出現過。
func Unique(c Combination, h *draws.History, window int) bool {
	return !h.ContainsCombination(c, window)
}

// ForceSacred 後處理：若組合缺少必含號碼，以它替換「分數最低」的成員後重排。
//
// 這一步一定在回傳前執行、不可跳過；回傳組合保證包含必含號碼。
func ForceSacred(c Combination, m score.Map, sacred int) Combination {
	if c.Contains(sacred) {
		return c
	}
	low := 0
	for i := 1; i < len(c); i++ {
		if m[c[i]] < m[c[low]] {
			low = i
		}
	}
	c[low] = sacred
	sort.Ints(c[:])
	return c
}
