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

// Package draws 定義開獎資料模型（Draw/History/Ticket）與 CSV 載入。
//
// History 是整條 pipeline 的唯一事實來源（read-only），載入時一次完成
// 範圍/重複/缺漏檢查；載入後不再變動，可安全併發共享。
package draws

import (
	"fmt"
	"sort"
	"time"

	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
)

// Draw 一期開獎：5 顆主球 + 2 顆星號球，附期數與日期。
//
// Balls/Stars 一律遞增排序存放；建構後不可變。
type Draw struct {
	Seq   int          `json:"seq"`
	Date  time.Time    `json:"date"`
	Balls [spec.NumBalls]int `json:"balls"`
	Stars [spec.NumStars]int `json:"stars"`
}

// New 以原始號碼建立一期 Draw，檢查範圍與重複後回傳。
func New(seq int, date time.Time, balls []int, stars []int) (Draw, error) {
	var d Draw
	if len(balls) != spec.NumBalls {
		return d, errs.NewWarn(fmt.Sprintf("draw %d: want %d balls, got %d", seq, spec.NumBalls, len(balls)))
	}
	if len(stars) != spec.NumStars {
		return d, errs.NewWarn(fmt.Sprintf("draw %d: want %d stars, got %d", seq, spec.NumStars, len(stars)))
	}

	copy(d.Balls[:], balls)
	copy(d.Stars[:], stars)
	sort.Ints(d.Balls[:])
	sort.Ints(d.Stars[:])

	for i, b := range d.Balls {
		if !spec.ValidBall(b) {
			return d, errs.NewWarn(fmt.Sprintf("draw %d: ball %d out of range", seq, b))
		}
		if i > 0 && d.Balls[i-1] == b {
			return d, errs.NewWarn(fmt.Sprintf("draw %d: duplicate ball %d", seq, b))
		}
	}
	for i, s := range d.Stars {
		if !spec.ValidStar(s) {
			return d, errs.NewWarn(fmt.Sprintf("draw %d: star %d out of range", seq, s))
		}
		if i > 0 && d.Stars[i-1] == s {
			return d, errs.NewWarn(fmt.Sprintf("draw %d: duplicate star %d", seq, s))
		}
	}

	d.Seq = seq
	d.Date = date
	return d, nil
}

// HasBall 回傳此期主球是否包含 n。球數固定為 5，線性掃描即可。
func (d Draw) HasBall(n int) bool {
	for _, b := range d.Balls {
		if b == n {
			return true
		}
	}
	return false
}

// SumBalls 回傳主球總和。
func (d Draw) SumBalls() int {
	s := 0
	for _, b := range d.Balls {
		s += b
	}
	return s
}

// Ticket 一張實際投注的彩券：號碼 + 觀測到的獎級與實得獎金。
//
// Rank 0 表示未中獎。
type Ticket struct {
	Draw
	Rank   int     `json:"rank"`
	Payout float64 `json:"payout"`
}
