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

package lotolab

import (
	"crypto/rand"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/gen"
	"github.com/zintix-labs/lotolab/recorder"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/spec"
)

// maxPicks 單次 Generate 請求的組數上限。
const maxPicks = 100

// Bench 封裝一張「可對外提供 Generate 的工作檯」。
//
// 你可以把 Bench 視為 Generator 的「外殼（shell）」：
//   - 對外：提供 Generate 入口（HTTP/模擬器通常只操作 Bench）。
//   - 對內：持有 RNG（Core）與真正執行選號邏輯的 Generator（評分 + 排名 + 視窗搜尋）。
//
// 並發語意：
//   - Bench 不是 lock-free 結構；同一張 Bench 不應被多 goroutine 同時 Generate。
//   - 若要併發模擬，由更高層建立多張 Bench 分散到不同 worker 並管理其生命週期。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Bench struct {
	labName  string            // Lab 名稱（來自 LabSetting.LabName，主要用於觀測/日誌）
	id       spec.DatasetID    // 資料集 ID（Catalog 內唯一；用於路由與查表）
	set      *spec.LabSetting  // 啟發式設定（評分權重/約束/模擬參數）
	hist     *draws.History    // 清洗後的歷史開獎（不可變）
	core     *core.Core        // RNG 核心（PRNG + Snapshot/Restore 合約；熱路徑會頻繁取樣）
	g        *gen.Generator    // 選號核心（分數在建構時算好，之後每次走視窗搜尋）
	mu       sync.Mutex        // 防併發鎖：保護核心狀態一致性
	initseed int64             // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

// newBench 以「隨機 seed」建立 Bench。
//
// 這裡使用 crypto/rand 產生 seed 是為了：
//   - 在對外服務情境避免可預測 RNG
//   - 同時保留可追溯性（seed 會被記錄在 Bench.initseed）
//
// seed 只保證了新建 Bench 的起點，如果需要在任意局後將工作檯"重設"到任意Core節點，請利用Snapshot Restore來操作
func newBench(set *spec.LabSetting, hist *draws.History, cf core.PRNGFactory) (*Bench, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newBenchWithSeed(set, hist, cf, seed.Int64())
}

// newBenchWithSeed 以指定 seed 建立 Bench。
//
// 這是最常用的「可重現」入口：同一份 LabSetting + 同一份歷史 + 同一個 seed，應能得到一致的隨機序列（取決於 Core 實作）。
//
// 建立流程（概念）：
//  1. core.New(cf.New(seed)) 建出 RNG 核心
//  2. gen.NewGenerator(hist, set, core) 依歷史 + 設定建出選號核心（分數/排名在此時算好）
func newBenchWithSeed(set *spec.LabSetting, hist *draws.History, cf core.PRNGFactory, seed int64) (*Bench, error) {
	b := &Bench{
		labName:  set.LabName,
		id:       set.DatasetID,
		set:      set,
		hist:     hist,
		core:     core.New(cf.New(seed)),
		initseed: seed,
	}
	var err error
	b.g, err = gen.NewGenerator(hist, set, b.core)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Generate 為主要公開入口，會驗證產號請求，執行選號並回傳結果。
func (b *Bench) Generate(r *dto.GenerateRequest) (dto.GenerateResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// 1. 校驗請求合法性
	if err := b.valid(r); err != nil {
		return dto.GenerateResult{}, err
	}
	mode, err := ParseMode(r.Profile)
	if err != nil {
		return dto.GenerateResult{}, err
	}
	count := r.Count
	if count == 0 {
		count = 1
	}

	// 2. get start snapshot
	startsnap, err := b.SnapshotCore()
	if err != nil {
		return dto.GenerateResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	rem := startsnap
	replay := r.StartState.HasPayload()
	if replay {
		snap, err := r.StartState.Snap()
		if err != nil {
			return dto.GenerateResult{}, errs.NewWarn("decode start state err " + err.Error())
		}
		startsnap = snap
		if err := b.RestoreCore(snap); err != nil {
			return dto.GenerateResult{}, errs.NewWarn("restore core err " + err.Error())
		}
	}

	// 3. generate picks
	picks := make([]dto.PickDTO, 0, count)
	fallbacks := 0
	for i := 0; i < count; i++ {
		c, fb := b.pick(mode)
		if fb {
			fallbacks++
		}
		picks = append(picks, dto.PickDTO{
			Balls:    [spec.NumBalls]int(c),
			Stars:    b.g.RandomStars(),
			Sum:      c.Sum(),
			Fallback: fb,
		})
	}

	// 4. get after snapshot
	aftersnap, err := b.SnapshotCore()
	if err != nil {
		if e := b.RestoreCore(rem); e != nil {
			return dto.GenerateResult{}, errs.NewFatal("fall back err " + e.Error())
		}
		return dto.GenerateResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	// 5. restore if needed
	if replay {
		if err := b.RestoreCore(rem); err != nil {
			return dto.GenerateResult{}, errs.NewFatal("restore core back err " + err.Error())
		}
	}

	return dto.GenerateResult{
		LabName:   b.labName,
		ID:        b.id,
		Profile:   mode.String(),
		Picks:     picks,
		Fallbacks: fallbacks,
		State:     dto.NewGenState(startsnap, aftersnap),
	}, nil
}

// pick 依模式產一組五球；只有 heuristic 可能走 fallback。
func (b *Bench) pick(mode Mode) (gen.Combination, bool) {
	switch mode {
	case ModeRandom:
		return b.g.Random(), false
	case ModeWeighted:
		return b.g.Weighted(), false
	default:
		return b.g.Generate()
	}
}

// TrialInternal 直接跑一局「產號 vs 開獎」；常用於模擬器或測試
//
// 請勿在正式環境使用
//
// 此行為跳過所有檢查：產一組號、抽一次虛擬開獎、對獎後回傳逐局結果列。
func (b *Bench) TrialInternal(mode Mode) recorder.TrialRow {
	played, fb := b.pick(mode)
	pstars := b.g.RandomStars()
	drawn, dstars := b.g.RandomDraw()

	nb := played.Matches(drawn)
	ns := 0
	for _, s := range pstars {
		if s == dstars[0] || s == dstars[1] {
			ns++
		}
	}
	var rank int
	if b.set.Sim.ScoreStars {
		rank = spec.RankFor(nb, ns)
	} else {
		rank = spec.RankForBallsOnly(nb)
	}
	return recorder.TrialRow{
		Played:      played,
		PlayedStars: pstars,
		Drawn:       drawn,
		DrawnStars:  dstars,
		Rank:        rank,
		Payout:      spec.PayoutForRank(rank),
		Fallback:    fb,
	}
}

func (b *Bench) valid(req *dto.GenerateRequest) error {
	if req == nil {
		return errs.NewWarn("nil request")
	}
	if b.id != req.ID {
		return errs.NewWarn("dataset id is not matched")
	}
	if req.LabName != "" && b.labName != req.LabName {
		return errs.NewWarn("lab name is not matched")
	}
	if req.Count < 0 || req.Count > maxPicks {
		return errs.NewWarn("count out of range")
	}
	return nil
}

// Scores 曝露排名用的合成分數（分析/除錯用）。
func (b *Bench) Scores() [spec.BallMax + 1]float64 {
	return [spec.BallMax + 1]float64(b.g.Scores())
}

// SnapshotCore 取得Core狀態暫存 當前僅提供取得Core狀態
//
// 之後要實作中斷回復時候提供checkpoint加入必要恢復資訊時實作
// SnapShot() <- 保留語意
func (b *Bench) SnapshotCore() ([]byte, error) {
	return b.core.Snapshot()
}

// RestoreCore 恢復Core狀態暫存 當前僅提供恢復Core狀態
//
// 之後要實作中斷回復時候提供checkpoint加入必要恢復資訊時實作
// Restore() <- 保留語意
func (b *Bench) RestoreCore(src []byte) error {
	return b.core.Restore(src)
}
