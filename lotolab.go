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

// Package lotolab 提供 Lotolab 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Lab 視為一個「可被後端/模擬器使用的 runtime」，它負責把下列兩個必需的地基組裝在一起，並提供建立 Bench 的入口：
//  1. Catalog：資料集目錄（Single Source of Truth / SSOT），定義有哪些資料集、各自對應的設定檔（ConfigName）與歷史開獎檔（DrawsName）。
//  2. CoreFactory：亂數核心工廠（PRNG factory），保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Lab 本身不綁定任何「檔案路徑」概念：設定檔與歷史資料一律以 fs.FS 的形式注入。
//   - Lab 會持有一份 Catalog（你要跑哪一批資料集/設定檔）。
//   - Bench 是對外提供 Generate 的最小單位；每個 Bench 綁定一份歷史資料與一份啟發式設定。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Lab 建立 Bench，Bench 對外提供 Generate。
//   - 模擬器（sim）：由 Lab 建立 Simulator 進行大量回測。
//
// 注意：此套引擎目前以樂透號碼分析為中心（Generate -> Picks / Backtest -> Report），不是泛用分析框架。
package lotolab

import (
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zintix-labs/lotolab/catalog"
	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/spec"
)

// Datasets 用來把一或多個資料來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 settings + CSV 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
//   - 甚至可以用自製的 MultiFS 來合併多個來源。
//
// Lab 不解析「路徑」：它只依賴 fs.FS + 檔名來取得設定與歷史資料。
func Datasets(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是「組裝器（assembler）」與「運行入口（runtime entry）」：
//
// 它把兩個必需的地基組合起來：
//  1. Catalog：資料集目錄（SSOT），定義有哪些資料集、各自的設定檔與歷史開獎檔。
//  2. CoreFactory：亂數核心工廠（PRNG factory），保證可重現與可審計。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據資料集 ID 產生 Bench / Simulator。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Lab instance」內（不同 Lab 之間不做全域保證）。
//   - 你要跑哪一批資料集、哪一套設定檔，必須由 New() 的參數明確決定。
//   - runtime 一旦開始（例如已建立 Bench 並對外服務），不建議再變更 Catalog（避免非預期行為）。
//
// 歷史資料會在第一次讀取後快取（CSV 清洗成本高，且 History 建好後不可變）。
type Lab struct {
	cat *catalog.Catalog
	cf  core.CoreFactory
	sum []catalog.Summary

	mu     sync.Mutex
	hists  map[spec.DatasetID]*draws.History
	cleans map[spec.DatasetID]*draws.CleanReport
}

// New 建立一個 Lab instance。
//
// 這是「組裝階段（registration/build）」的入口：
//   - 會建立 Catalog（同時做檔名存在性/重複性檢查，避免 runtime 才爆）。
//   - 會保存 CoreFactory，確保由這個 Lab 建出來的 Bench 在 RNG 行為上具有一致性。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有資料來源，Catalog 無法解析 LabSetting 與歷史開獎。
func New(cf core.CoreFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("datasets required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat:    cata,
		cf:     cf,
		hists:  map[spec.DatasetID]*draws.History{},
		cleans: map[spec.DatasetID]*draws.CleanReport{},
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance。
func NewAuto(cf core.CoreFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的資料來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *spec.LabSetting，並用設定檔內宣告的 DatasetID/LabName/DrawsFile 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：會依檔名排序後再處理，確保行為 determinism（方便重現與除錯）。
//
// 注意：
//   - RegisterAll 只負責「把設定檔宣告的資料集資訊放進 Catalog」。
//
// 歷史資料是否乾淨（清洗掉多少壞列）要等第一次 HistoryById 時才會知道。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("datasets required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.DatasetID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("datasets must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("datasets must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				ls   *spec.LabSetting
				lerr error
			)
			switch ext {
			case ".yaml", ".yml":
				ls, lerr = spec.GetLabSettingByYAML(raw)
			case ".json":
				ls, lerr = spec.GetLabSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if lerr != nil {
				return errs.NewFatal(fmt.Sprintf("parse labsetting failed: %s", base))
			}

			name := strings.TrimSpace(ls.LabName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("lab name required: %s", base))
			}
			if ls.DrawsFile == "" {
				return errs.NewFatal(fmt.Sprintf("draws_file required: %s", base))
			}

			id := ls.DatasetID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate dataset id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := l.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("dataset id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate lab name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := l.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("lab name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				ID:         id,
				Name:       name,
				ConfigName: base,
				DrawsName:  ls.DrawsFile,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryById(id spec.DatasetID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []spec.DatasetID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

// LabSettingById 讀取並解析資料集對應的啟發式設定。
func (l *Lab) LabSettingById(id spec.DatasetID) (*spec.LabSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.LabSettingById(id)
}

// HistoryById 取得資料集歷史開獎（第一次讀取時做 CSV 清洗並快取）。
func (l *Lab) HistoryById(id spec.DatasetID) (*draws.History, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.hists[id]; ok {
		return h, nil
	}
	h, rep, err := l.cat.HistoryById(id)
	if err != nil {
		return nil, err
	}
	l.hists[id] = h
	l.cleans[id] = rep
	return h, nil
}

// CleanReportById 回傳資料集的 CSV 清洗結果（尚未載入時會觸發載入）。
func (l *Lab) CleanReportById(id spec.DatasetID) (*draws.CleanReport, error) {
	if _, err := l.HistoryById(id); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cleans[id], nil
}

func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	ids := l.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ls, err := l.cat.LabSettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse lab setting failed")
		}
		h, err := l.HistoryById(id)
		if err != nil {
			return nil, err
		}
		s := catalog.Summary{
			ID:       id,
			Name:     ls.LabName,
			Draws:    h.Len(),
			Stake:    ls.Sim.Stake,
			Profiles: ls.Profiles,
		}
		cs = append(cs, s)
	}
	l.sum = cs
	return l.sum, nil
}

// NewBench 依據 Catalog 內的資料集 ID 建立一台 Bench。
//
// 行為：
//  1. 由 Catalog 取得對應的 LabSetting 與清洗後的 History。
//  2. 以 CoreFactory 產生 RNG 核心（seed 由 crypto/rand 產生）。
//  3. 建立 Generator（評分 + 排名在此時算好，之後每次 Generate 走視窗搜尋）。
//
// 注意：seed 會被記錄在 Bench 內（initseed），用於追溯/重現；真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (l *Lab) NewBench(id spec.DatasetID) (*Bench, error) {
	set, hist, err := l.material(id)
	if err != nil {
		return nil, err
	}
	return newBench(set, hist, l.cf)
}

// NewBenchWithSeed 與 NewBench 相同，但由呼叫端指定初始 seed。
//
// 使用情境：
//   - 可重現的測試：同一份設定 + 同一個 seed，應產生一致的隨機序列（取決於 Core 實作）。
//
// 注意：seed 只是「出生入口」。若要在任意時間點完整重現，請使用 Core 的 Snapshot/Restore（以 []byte 交換狀態）。
func (l *Lab) NewBenchWithSeed(id spec.DatasetID, seed int64) (*Bench, error) {
	set, hist, err := l.material(id)
	if err != nil {
		return nil, err
	}
	return newBenchWithSeed(set, hist, l.cf, seed)
}

func (l *Lab) NewSimulator(id spec.DatasetID) (*Simulator, error) {
	set, hist, err := l.material(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(set, hist, l.cf)
}

func (l *Lab) NewSimulatorWithSeed(id spec.DatasetID, seed int64) (*Simulator, error) {
	set, hist, err := l.material(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(set, hist, l.cf, seed)
}

// NewSimulatorByYAML 以呼叫端帶入的設定覆蓋 catalog 設定做回測（調參用）。
//
// 設定內的 DatasetID 必須存在於 catalog（歷史資料仍由 catalog 提供）。
func (l *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ls, err := spec.GetLabSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(ls); err != nil {
		return nil, err
	}
	hist, err := l.HistoryById(ls.DatasetID)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ls, hist, l.cf, seed)
}

func (l *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ls, err := spec.GetLabSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(ls); err != nil {
		return nil, err
	}
	hist, err := l.HistoryById(ls.DatasetID)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ls, hist, l.cf, seed)
}

func (l *Lab) validCfg(ls *spec.LabSetting) error {
	if _, ok := l.cat.GetByID(ls.DatasetID); !ok {
		return errs.NewWarn("dataset id not exist")
	}
	return nil
}

func (l *Lab) material(id spec.DatasetID) (*spec.LabSetting, *draws.History, error) {
	if !l.cat.IsFrozen() {
		return nil, nil, errs.NewFatal("catalog is not frozen yet")
	}
	set, err := l.cat.LabSettingById(id)
	if err != nil {
		return nil, nil, err
	}
	hist, err := l.HistoryById(id)
	if err != nil {
		return nil, nil, err
	}
	return set, hist, nil
}

func (l *Lab) BuildRuntime(poolSize int) (*LabRuntime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	l.Freeze()

	ids := l.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no datasets registered")
	}

	rt := &LabRuntime{
		lab:      l,
		pools:    make(map[spec.DatasetID]*GenPool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast + cleanup）
	for _, id := range ids {
		set, hist, err := l.material(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		gp, err := newGenPool(rt.poolSize, set, hist, l.cf, seed.Int64())
		if err != nil {
			return nil, err
		}
		rt.pools[id] = gp
	}
	return rt, nil
}

// NewDevSimulator
//
// 注意只能由Lab起
// 只提供給Dev模式使用的模擬器，重點是保持單 Bench 模式所以保持可重現性
func (l *Lab) NewDevSimulator(id spec.DatasetID, seed int64) (*DevSimulator, error) {
	sim, err := l.NewSimulatorWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	b, err := l.NewBenchWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	simBe, err := sim.bBuf[0].SnapshotCore()
	if err != nil {
		return nil, err
	}
	bBe, err := b.SnapshotCore()
	if err != nil {
		return nil, err
	}
	if string(simBe) != string(bBe) {
		return nil, errs.NewFatal("seeds are not equal")
	}
	dev := &DevSimulator{
		sim:    sim,
		b:      b,
		before: bBe,
	}
	return dev, nil
}
