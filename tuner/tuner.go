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

// Package tuner 對單一資料集做「評分參數掃描（sweep）」：
//
// 以 base LabSetting 為藍本，枚舉 window 與合成權重（w_recur/w_gap/w_move）
// 的候選組合，每個候選跑一段短回測，再依指標（roi / win_rate / sharpe）排名。
//
// 注意：
//   - 候選之間彼此獨立，各自從 SeedMaker 取一個 deterministic seed（可重現）。
//   - 這是離線調參工具，不是線上服務的一部分；結果落地到 build/tuner/。
package tuner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

const maxCandidates = 10_000
const minTrials = 100
const weightEps = 1e-9

// SweepSetting 掃描設定（YAML）。
//
// 網格欄位允許留空：留空代表「沿用 base 設定的該欄位」（單點）。
type SweepSetting struct {
	Profile string `yaml:"profile"` // heuristic / random（預設 heuristic）
	Trials  int    `yaml:"trials"`  // 每個候選的回測局數
	Workers int    `yaml:"workers"` // 每個候選的併發 worker 數
	TopN    int    `yaml:"top_n"`   // 報表顯示前 N 名
	Metric  string `yaml:"metric"`  // roi / win_rate / sharpe

	Windows []int     `yaml:"windows"`
	WRecur  []float64 `yaml:"w_recur"`
	WGap    []float64 `yaml:"w_gap"`
	WMove   []float64 `yaml:"w_move"`
}

func (s *SweepSetting) validate() error {
	if s.Profile == "" {
		s.Profile = "heuristic"
	}
	if _, err := lotolab.ParseMode(s.Profile); err != nil {
		return err
	}
	if s.Trials < minTrials {
		return errs.Warnf("trials must be >= %d", minTrials)
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	if s.TopN < 1 {
		s.TopN = 10
	}
	switch s.Metric {
	case "":
		s.Metric = "roi"
	case "roi", "win_rate", "sharpe":
	default:
		return errs.Warnf("metric %s not supported", s.Metric)
	}
	for _, w := range s.Windows {
		if w < 1 {
			return errs.Warnf("windows must be positive, got %d", w)
		}
	}
	for _, set := range [][]float64{s.WRecur, s.WGap, s.WMove} {
		for _, w := range set {
			if w < 0 {
				return errs.Warnf("weights must be non-negative, got %f", w)
			}
		}
	}
	return nil
}

func getSweepSettingByYaml(data []byte) (*SweepSetting, error) {
	s := &SweepSetting{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Candidate 一個掃描點：完整的 LabSetting 副本 + 它抽到的 seed。
type Candidate struct {
	Setting spec.LabSetting
	Seed    int64
}

// Result 單一候選的回測摘要，Score 由 metric 決定。
type Result struct {
	Window  int      `json:"window"`
	WRecur  float64  `json:"w_recur"`
	WGap    float64  `json:"w_gap"`
	WMove   float64  `json:"w_move"`
	Seed    int64    `json:"seed"`
	ROI     float64  `json:"roi"`
	RoiCI   stats.CI `json:"roi_ci"`
	WinRate float64  `json:"win_rate"`
	Std     float64  `json:"std"`
	Score   float64  `json:"score"`
}

// Tuner 掃描器主體。
type Tuner struct {
	cfg     *SweepSetting
	seeds   *lotolab.SeedMaker
	results []Result
	eval    func(*stats.BacktestReport) float64
}

func New(cfg fs.FS, name string) (*Tuner, error) {
	raw, err := fs.ReadFile(cfg, name)
	if err != nil {
		return nil, errs.Wrap(err, "read sweep setting failed")
	}
	set, err := getSweepSettingByYaml(raw)
	if err != nil {
		return nil, err
	}
	t := &Tuner{cfg: set}
	t.eval = t.metricEval(set.Metric)
	return t, nil
}

// RegisterEval 覆寫評分函式（進階用：自訂 metric）。
func (t *Tuner) RegisterEval(fn func(*stats.BacktestReport) float64) {
	t.eval = fn
}

// Results 回傳排序後的結果（Run 之後才有內容）。
func (t *Tuner) Results() []Result {
	return t.results
}

// Run 執行整個掃描流程：
//  1. 讀 base 設定 → 枚舉候選網格。
//  2. 每個候選建一個獨立 Simulator（JSON round-trip 確保 fill/valid 被套用）。
//  3. 回測、評分、排序。
//  4. 結果落地（JSON + zstd）。
func (t *Tuner) Run(id spec.DatasetID, lab *lotolab.Lab, seed int64) error {
	t.seeds = lotolab.NewSeedMaker(seed)

	base, err := lab.LabSettingById(id)
	if err != nil {
		return err
	}
	cands, err := t.expand(base)
	if err != nil {
		return err
	}
	mode, err := lotolab.ParseMode(t.cfg.Profile)
	if err != nil {
		return err
	}

	fmt.Printf("sweep: %d candidates x %d trials (%s, metric=%s)\n",
		len(cands), t.cfg.Trials, t.cfg.Profile, t.cfg.Metric)

	var done atomic.Int64
	pp := startProgressPrinter(len(cands), &done)

	t.results = t.results[:0]
	for _, cand := range cands {
		rep, err := t.backtest(lab, cand, mode)
		if err != nil {
			pp.Stop()
			return err
		}
		t.results = append(t.results, Result{
			Window:  cand.Setting.Score.Window,
			WRecur:  cand.Setting.Score.WRecur,
			WGap:    cand.Setting.Score.WGap,
			WMove:   cand.Setting.Score.WMove,
			Seed:    cand.Seed,
			ROI:     rep.Summary.ROI,
			RoiCI:   rep.Summary.RoiCI,
			WinRate: rep.Summary.WinRate,
			Std:     rep.Summary.Std,
			Score:   t.eval(rep),
		})
		done.Add(1)
	}
	pp.Stop()

	sort.SliceStable(t.results, func(i, j int) bool {
		return t.results[i].Score > t.results[j].Score
	})

	t.report()
	return t.save(id)
}

// expand 以 base 為藍本枚舉候選網格。
//
// 權重三元組會做歸一化（總和縮到 1），總和為 0 的組合直接剔除。
func (t *Tuner) expand(base *spec.LabSetting) ([]Candidate, error) {
	windows := t.cfg.Windows
	if len(windows) == 0 {
		windows = []int{base.Score.Window}
	}
	recurs := t.cfg.WRecur
	if len(recurs) == 0 {
		recurs = []float64{base.Score.WRecur}
	}
	gaps := t.cfg.WGap
	if len(gaps) == 0 {
		gaps = []float64{base.Score.WGap}
	}
	moves := t.cfg.WMove
	if len(moves) == 0 {
		moves = []float64{base.Score.WMove}
	}

	var cands []Candidate
	for _, w := range windows {
		for _, wr := range recurs {
			for _, wg := range gaps {
				for _, wm := range moves {
					total := wr + wg + wm
					if total < weightEps {
						continue
					}
					s := *base
					s.Score.Window = w
					s.Score.WRecur = wr / total
					s.Score.WGap = wg / total
					s.Score.WMove = wm / total
					s.Sim.Trials = t.cfg.Trials
					s.Sim.Workers = t.cfg.Workers
					s.Sim.KeepRows = false
					cands = append(cands, Candidate{Setting: s, Seed: t.seeds.Next()})
					if len(cands) > maxCandidates {
						return nil, errs.Warnf("grid too large: more than %d candidates", maxCandidates)
					}
				}
			}
		}
	}
	if len(cands) == 0 {
		return nil, errs.NewWarn("empty grid: no valid weight combination")
	}
	return cands, nil
}

func (t *Tuner) backtest(lab *lotolab.Lab, cand Candidate, mode lotolab.Mode) (*stats.BacktestReport, error) {
	raw, err := json.Marshal(&cand.Setting)
	if err != nil {
		return nil, errs.Wrap(err, "marshal candidate setting failed")
	}
	sim, err := lab.NewSimulatorByJSON(raw, cand.Seed)
	if err != nil {
		return nil, err
	}
	if t.cfg.Workers > 1 {
		per := max(1, t.cfg.Trials/t.cfg.Workers)
		rep, _, err := sim.SimMP(mode, per, t.cfg.Workers, false)
		return rep, err
	}
	rep, _, err := sim.Sim(mode, t.cfg.Trials, false)
	return rep, err
}

func (t *Tuner) metricEval(metric string) func(*stats.BacktestReport) float64 {
	switch metric {
	case "win_rate":
		return func(r *stats.BacktestReport) float64 { return r.Summary.WinRate }
	case "sharpe":
		// 短回測下 std 可能為 0（全輸），此時以 ROI 充當分數避免除零。
		return func(r *stats.BacktestReport) float64 {
			if r.Summary.Std <= 0 {
				return r.Summary.ROI
			}
			return (r.Summary.TotalPayout/float64(r.Summary.Trials) - r.Summary.Stake) / r.Summary.Std
		}
	default:
		return func(r *stats.BacktestReport) float64 { return r.Summary.ROI }
	}
}

// report 輸出前 N 名與整體掃描離散度。
func (t *Tuner) report() {
	p := message.NewPrinter(language.English)
	n := min(t.cfg.TopN, len(t.results))

	p.Printf("rank  window  w_recur  w_gap  w_move        roi     win_rate      score\n")
	for i := range n {
		r := t.results[i]
		p.Printf("%4d  %6d  %7.3f  %5.3f  %6.3f  %8.3f%%  %10.5f  %9.4f\n",
			i+1, r.Window, r.WRecur, r.WGap, r.WMove, r.ROI, r.WinRate, r.Score)
	}

	scores := make([]float64, len(t.results))
	for i, r := range t.results {
		scores[i] = r.Score
	}
	mean, std := stat.MeanStdDev(scores, nil)
	p.Printf("candidates: %d  score mean: %.4f  std: %.4f\n", len(t.results), mean, std)
}

// save 把完整排序結果存成 zstd 壓縮的 JSON：build/tuner/sweep_<id>.json.zst。
func (t *Tuner) save(id spec.DatasetID) error {
	outDir := filepath.Join("build", "tuner")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errs.Wrap(err, "save: mkdir output dir")
	}
	jsonBytes, err := json.Marshal(t.results)
	if err != nil {
		return errs.Wrap(err, "save: marshal results json")
	}
	path := filepath.Join(outDir, fmt.Sprintf("sweep_%d.json.zst", id))
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "save: create sweep file")
	}
	defer func() { _ = f.Close() }()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errs.Wrap(err, "save: create zstd writer")
	}
	if _, err := zw.Write(jsonBytes); err != nil {
		_ = zw.Close()
		return errs.Wrap(err, "save: write sweep file")
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "save: close zstd writer")
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(err, "save: close sweep file")
	}

	// readback sanity check：確保落地檔可以解壓
	raw, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(err, "save: readback sweep file")
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return errs.Wrap(err, "save: verify zstd reader")
	}
	zr.Close()

	fmt.Printf("sweep saved: %s\n", path)
	return nil
}

type progressPrinter struct {
	stop   chan struct{}
	done   chan struct{}
	ticker *time.Ticker

	total    int
	finished *atomic.Int64

	lastLen int
}

// startProgressPrinter 每秒在同一行印出 done/total；Stop 時補上最後一行並換行。
func startProgressPrinter(total int, finished *atomic.Int64) *progressPrinter {
	p := &progressPrinter{
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		ticker:   time.NewTicker(1 * time.Second),
		total:    total,
		finished: finished,
	}

	printLine := func(final bool) {
		s := fmt.Sprintf("sweep: %d/%d", p.finished.Load(), p.total)
		pad := ""
		if p.lastLen > len(s) {
			pad = strings.Repeat(" ", p.lastLen-len(s))
		}
		fmt.Printf("\r%s%s", s, pad)
		p.lastLen = len(s)
		if final {
			fmt.Print("\n")
		}
	}

	printLine(false)

	go func() {
		defer close(p.done)
		defer p.ticker.Stop()
		for {
			select {
			case <-p.stop:
				printLine(true)
				return
			case <-p.ticker.C:
				printLine(false)
			}
		}
	}()

	return p
}

func (p *progressPrinter) Stop() {
	close(p.stop)
	<-p.done
}
