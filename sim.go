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
	"io"
	"math"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/recorder"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/sdk/sampler"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
)

const capPrepare int = 100

// Mode 是回測的產號模式。
type Mode int

const (
	// ModeHeuristic 走評分排名 + 視窗搜尋（約束不滿足時 fallback 均勻抽樣）。
	ModeHeuristic Mode = iota
	// ModeRandom 純均勻抽樣基準線。
	ModeRandom
	// ModeWeighted 以合成分數為權重直接抽樣（不走視窗搜尋與約束）。
	ModeWeighted
)

// ParseMode 解析模式字串；空字串視為 heuristic。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heuristic":
		return ModeHeuristic, nil
	case "random":
		return ModeRandom, nil
	case "weighted":
		return ModeWeighted, nil
	default:
		return 0, errs.NewWarn("unknown profile: " + s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeRandom:
		return "random"
	case ModeWeighted:
		return "weighted"
	default:
		return "heuristic"
	}
}

// theoryProfile 是 SimTheory 報表上的 profile 名稱。
const theoryProfile = "theory"

// Simulator 用於大量回測，可建立多張工作檯並平行紀錄統計。
type Simulator struct {
	LabName   string                    // Lab 名稱
	ID        spec.DatasetID            // 資料集編號
	set       *spec.LabSetting          // 方便重用建立 Bench/Recorder
	hist      *draws.History            // 清洗後的歷史開獎
	cf        core.CoreFactory          // 亂數生成器
	initSeed  int64                     // 初始下的種子
	seedmaker *seedMaker                // 種子生成器
	bBuf      []*Bench                  // 併發執行工作檯實例
	rBuf      []*recorder.TrialRecorder // 併發回測紀錄員
}

func newSimulator(set *spec.LabSetting, hist *draws.History, cf core.CoreFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(set, hist, cf, seed.Int64())
}

func newSimulatorWithSeed(set *spec.LabSetting, hist *draws.History, cf core.CoreFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		LabName:   set.LabName,
		ID:        set.DatasetID,
		set:       set,
		hist:      hist,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		bBuf:      make([]*Bench, 1, capPrepare),
		rBuf:      make([]*recorder.TrialRecorder, 0, capPrepare),
	}
	b, err := newBenchWithSeed(set, hist, cf, s.initSeed)
	if err != nil {
		return nil, err
	}
	s.bBuf[0] = b
	return s, nil
}

// InitSeed 回傳模擬器出生時的種子（報表回填用）。
func (s *Simulator) InitSeed() int64 { return s.initSeed }

// Sim 單線模擬器：以一張工作檯連續跑指定 trials 並回傳統計結果與用時
func (s *Simulator) Sim(mode Mode, trials int, showpb bool) (*stats.BacktestReport, time.Duration, error) {
	defer s.reset()
	if trials < 1 {
		return nil, 0, errs.NewWarn("trials must > 0")
	}
	if len(s.rBuf) == 0 {
		r, err := recorder.NewTrialRecorder(s.LabName, mode.String(), s.set.Sim.Stake, s.set.Sim.KeepRows)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	r := s.rBuf[0]
	b := s.bBuf[0]

	bar := pb.StartNew(trials)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < trials; i++ {
		row := b.TrialInternal(mode)
		r.Record(row)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多張工作檯，總計 trials*mp 局，合併統計結果後 回傳統計結果與用時
func (s *Simulator) SimMP(mode Mode, trials int, mp int, showpb bool) (*stats.BacktestReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if trials < 1 {
		return nil, 0, errs.NewWarn("trials must > 0")
	}
	for len(s.bBuf) < mp {
		b, err := newBenchWithSeed(s.set, s.hist, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, 0, err
		}
		s.bBuf = append(s.bBuf, b)
	}

	for len(s.rBuf) < mp {
		r, err := recorder.NewTrialRecorder(s.LabName, mode.String(), s.set.Sim.Stake, s.set.Sim.KeepRows)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(trials * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			b := s.bBuf[i]
			st := s.rBuf[i]
			for t := 0; t < trials; t++ {
				row := b.TrialInternal(mode)
				st.Record(row)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeTrialRecorders(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimTheory 理論快路徑：不產號不對獎，直接依獎級機率抽名次。
//
// 用整數權重的 AliasTable 把 13 個獎級 + 未中獎做成離散分佈，
// 每局一次查表即可，適合需要上億局的收斂檢查。
// 報表的 ROI 應收斂到 spec.TheoreticalROI()。
func (s *Simulator) SimTheory(trials int, showpb bool) (*stats.BacktestReport, time.Duration, error) {
	defer s.reset()
	if trials < 1 {
		return nil, 0, errs.NewWarn("trials must > 0")
	}
	r, err := recorder.NewTrialRecorder(s.LabName, theoryProfile, s.set.Sim.Stake, false)
	if err != nil {
		return nil, 0, err
	}
	at := buildRankTable()
	b := s.bBuf[0]

	bar := pb.StartNew(trials)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < trials; i++ {
		idx := at.Pick(b.core)
		row := recorder.TrialRow{}
		if idx >= 0 && idx < spec.NumRanks {
			row.Rank = spec.PrizeTable[idx].Rank
			row.Payout = spec.PayoutForRank(row.Rank)
		}
		r.Record(row)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// rankWeightScale 把獎級機率放大成整數權重的比例基底。
//
// 2^40 夠細（最稀有的獎級 1/139,838,160 仍有約 7,862 的權重），
// 且 總權重 * 項目數 遠小於 MaxInt64，滿足 BuildAliasTable 的溢位檢查。
const rankWeightScale = 1 << 40

// buildRankTable 建出「獎級 + 未中獎」的離散抽樣表。
//
// index 0..NumRanks-1 對應 spec.PrizeTable 的順序，index NumRanks 代表未中獎。
func buildRankTable() *sampler.AliasTable {
	ws := make([]int, spec.NumRanks+1)
	total := 0
	for i, pr := range spec.PrizeTable {
		w := int(math.Round(rankWeightScale * spec.ProbabilityForRank(pr.Rank)))
		ws[i] = w
		total += w
	}
	ws[spec.NumRanks] = rankWeightScale - total
	return sampler.BuildAliasTable(ws)
}

// Compare 對照回測：heuristic 與 random 各跑 trials*mp 局後做統計比較。
func (s *Simulator) Compare(trials int, mp int, showpb bool) (*stats.Comparison, time.Duration, error) {
	ra, ua, err := s.SimMP(ModeHeuristic, trials, mp, showpb)
	if err != nil {
		return nil, 0, err
	}
	rb, ub, err := s.SimMP(ModeRandom, trials, mp, showpb)
	if err != nil {
		return nil, 0, err
	}
	return stats.CompareReports(ra, rb), ua + ub, nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 SimMP）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// SeedMaker 對外提供 deterministic 的 seed 衍生序列。
//
// 用途：tuner 之類的長流程需要為每個候選設定各取一個獨立 seed，
// 同時保留「同一個 base seed ⇒ 同一串 seed」的可重現性。
type SeedMaker struct {
	inner *seedMaker
}

func NewSeedMaker(seed int64) *SeedMaker {
	return &SeedMaker{inner: newSeedMaker(seed)}
}

// Next 回傳下一個 seed（非負、可併發呼叫）。
func (s *SeedMaker) Next() int64 {
	return s.inner.next()
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
