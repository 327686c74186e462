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

package gen

import (
	"math"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/score"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/sdk/sampler"
	"github.com/zintix-labs/lotolab/spec"
)

// 分數轉整數權重的放大倍率。分數域是 [0,1] 級別的合成分數，
// 放大後 +1 保證每顆球權重為正（權重 0 在 K 抽樣中永不入選）。
const weightScale = 1_000_000

// Generator 啟發式組合生成器。
//
// 生成流程：
//  1. 以 History 快照計算合成分數，號碼依分數遞減排序。
//  2. 在排序列上滑動寬度 5 的視窗（最多 MaxOffsets 個起點），
//     依序檢查 Sum / Zone / Parity 約束，首個失敗即短路換下一視窗。
//  3. 第一個全過的視窗套用 ForceSacred 後回傳（遞增排序）。
//  4. 預算內找不到就保底：不帶任何約束的均勻抽樣（明確的 escape hatch，
//     啟發式是 best-effort，絕不阻塞模擬）。
//
// 分數於建構時算一次（History 唯讀，快照不變分數就不變）；
// 啟發式路徑是決定性的，只有保底分支消耗亂數。
// Generator 不是併發安全的：每個 worker 持有自己的一份。
type Generator struct {
	hist    *draws.History
	set     *spec.LabSetting
	c       *core.Core
	sm      score.Map
	order   []int // 依分數遞減的號碼排序
	weights []int // 分數的整數權重（index = 球號，0 不使用）

	fallbacks int // 保底次數（可觀測，供呼叫端回報）
	scratch   []int
}

// NewGenerator 建立生成器。history 為空或設定不合法屬於設定錯誤，直接拒絕。
func NewGenerator(h *draws.History, set *spec.LabSetting, c *core.Core) (*Generator, error) {
	if h == nil || h.Len() == 0 {
		return nil, errs.NewFatal("generator requires non-empty draw history")
	}
	if set == nil {
		return nil, errs.NewFatal("generator requires lab setting")
	}
	if c == nil {
		return nil, errs.NewFatal("generator requires a core")
	}
	sm := score.Combined(h, set.Score)
	weights := make([]int, spec.BallMax+1)
	for n := spec.BallMin; n <= spec.BallMax; n++ {
		weights[n] = int(math.Round(sm[n]*weightScale)) + 1
	}
	return &Generator{
		hist:    h,
		set:     set,
		c:       c,
		sm:      sm,
		order:   sm.Rank(),
		weights: weights,
		scratch: make([]int, 0, spec.NumBalls),
	}, nil
}

// Scores 回傳合成分數表（快照，供報表/除錯）。
func (g *Generator) Scores() score.Map { return g.sm }

// Fallbacks 回傳至今走到保底分支的次數。
func (g *Generator) Fallbacks() int { return g.fallbacks }

// Generate 產生一組組合。
//
// 回傳 fallback=true 表示走了保底均勻抽樣（未套任何約束，但仍強制必含號碼，
// 與原始流程一致：保底組合也會過 ForceSacred）。
func (g *Generator) Generate() (c Combination, fallback bool) {
	cs := g.set.Constraint

	maxStart := len(g.order) - spec.NumBalls
	budget := cs.MaxOffsets
	if budget > maxStart+1 {
		budget = maxStart + 1
	}

	for start := 0; start < budget; start++ {
		cand := NewCombination(g.order[start : start+spec.NumBalls])

		// 依序短路：順序不影響正確性，只影響成本
		if !ValidSum(cand, cs) {
			continue
		}
		if !ValidZones(cand, cs) {
			continue
		}
		if !ValidParity(cand, cs) {
			continue
		}
		if cs.Unique && !Unique(cand, g.hist, cs.UniqueWindow) {
			continue
		}
		return ForceSacred(cand, g.sm, cs.SacredNumber), false
	}

	// 保底：均勻抽 5 碼，不套約束
	g.fallbacks++
	c = g.Random()
	return ForceSacred(c, g.sm, cs.SacredNumber), true
}

// Weighted 以合成分數為權重做不重複抽樣。
//
// 不走視窗搜尋也不套 Sum/Zone/Parity 約束：它是 heuristic 與 random
// 之間的第三條路線，只保留 ForceSacred，讓回測可以單獨衡量
// 「分數本身」的選號效果。
func (g *Generator) Weighted() Combination {
	picked := sampler.WeightedSample(g.c, g.weights, spec.NumBalls)
	c := NewCombination(picked)
	return ForceSacred(c, g.sm, g.set.Constraint.SacredNumber)
}

// Random 均勻抽出 5 顆相異主球（random profile 與保底共用）。
func (g *Generator) Random() Combination {
	g.scratch = g.c.SampleDistinct(spec.BallMin, spec.BallMax, spec.NumBalls, g.scratch)
	return NewCombination(g.scratch)
}

// RandomStars 均勻抽出 2 顆相異星號球。
func (g *Generator) RandomStars() [spec.NumStars]int {
	var out [spec.NumStars]int
	g.scratch = g.c.SampleDistinct(spec.StarMin, spec.StarMax, spec.NumStars, g.scratch)
	copy(out[:], g.scratch)
	if out[0] > out[1] {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

// RandomDraw 模擬一期「真實開獎」：5 主球 + 2 星號，皆均勻抽樣。
func (g *Generator) RandomDraw() (balls [spec.NumBalls]int, stars [spec.NumStars]int) {
	c := g.Random()
	copy(balls[:], c[:])
	stars = g.RandomStars()
	return balls, stars
}
