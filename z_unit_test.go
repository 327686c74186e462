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

package lotolab_test

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/spec"
)

const drawsCSV = `draw,date,b1,b2,b3,b4,b5,e1,e2
1,2024-01-02,3,13,23,33,43,2,9
2,2024-01-05,5,15,25,35,45,3,7
3,2024-01-09,2,12,22,32,42,1,11
4,2024-01-12,7,17,27,37,47,4,8
5,2024-01-16,4,14,24,34,44,5,10
6,2024-01-19,6,16,26,36,46,2,6
7,2024-01-23,8,18,28,38,48,3,12
8,2024-01-26,9,19,29,39,49,1,9
9,2024-01-30,10,20,30,40,50,4,7
10,2024-02-02,1,11,21,31,41,5,11
11,2024-02-06,3,15,27,39,50,2,8
12,2024-02-09,5,13,21,38,44,6,10
`

const labYAML = `lab_name: euro-root
dataset_id: 1
draws_file: euro.csv
profiles:
  - heuristic
  - weighted
  - random
  - theory
`

func dataFS() fstest.MapFS {
	return fstest.MapFS{
		"euro.yaml": &fstest.MapFile{Data: []byte(labYAML)},
		"euro.csv":  &fstest.MapFile{Data: []byte(drawsCSV)},
	}
}

func newLab(t *testing.T) *lotolab.Lab {
	t.Helper()
	lab, err := lotolab.NewAuto(core.Default(), lotolab.Datasets(dataFS()))
	if err != nil {
		t.Fatal(err)
	}
	return lab
}

func TestNewAutoAndSummary(t *testing.T) {
	lab := newLab(t)

	sums, err := lab.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Fatalf("summaries = %d", len(sums))
	}
	s := sums[0]
	if s.ID != 1 || s.Name != "euro-root" || s.Draws != 12 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Stake != 3.50 {
		t.Fatalf("stake default = %v", s.Stake)
	}
	if len(s.Profiles) != 4 {
		t.Fatalf("profiles = %v", s.Profiles)
	}

	// 歷史快取：同一資料集重複取得同一份 History
	h1, err := lab.HistoryById(1)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := lab.HistoryById(1)
	if h1 != h2 {
		t.Fatal("history should be cached")
	}
	rep, err := lab.CleanReportById(1)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Kept != 12 || rep.Total != 12 {
		t.Fatalf("clean report = %+v", rep)
	}
}

func TestLabRequiresFreeze(t *testing.T) {
	lab, err := lotolab.New(core.Default(), lotolab.Datasets(dataFS()))
	if err != nil {
		t.Fatal(err)
	}
	if err := lab.RegisterAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := lab.NewBench(1); err == nil {
		t.Fatal("bench before freeze should fail")
	}
	if _, err := lab.Summary(); err == nil {
		t.Fatal("summary before freeze should fail")
	}
	lab.Freeze()
	if _, err := lab.NewBench(1); err != nil {
		t.Fatal(err)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := lotolab.New(nil, lotolab.Datasets(dataFS())); err == nil {
		t.Fatal("nil core factory should be rejected")
	}
	if _, err := lotolab.New(core.Default(), nil); err == nil {
		t.Fatal("empty datasets should be rejected")
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want lotolab.Mode
	}{
		{"", lotolab.ModeHeuristic},
		{"heuristic", lotolab.ModeHeuristic},
		{" Heuristic ", lotolab.ModeHeuristic},
		{"random", lotolab.ModeRandom},
		{"weighted", lotolab.ModeWeighted},
	}
	for _, c := range cases {
		got, err := lotolab.ParseMode(c.in)
		if err != nil || got != c.want {
			t.Fatalf("ParseMode(%q) = %v, %v", c.in, got, err)
		}
	}
	if _, err := lotolab.ParseMode("martingale"); err == nil {
		t.Fatal("unknown profile should be rejected")
	}
	if lotolab.ModeWeighted.String() != "weighted" || lotolab.ModeRandom.String() != "random" {
		t.Fatal("mode string mismatch")
	}
}

func TestSeedMakerDeterministic(t *testing.T) {
	a := lotolab.NewSeedMaker(12345)
	b := lotolab.NewSeedMaker(12345)
	prev := int64(-1)
	for i := 0; i < 16; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("seed sequence diverged at %d: %d vs %d", i, va, vb)
		}
		if va < 0 {
			t.Fatalf("seed must be non-negative: %d", va)
		}
		if va == prev {
			t.Fatalf("seed repeated: %d", va)
		}
		prev = va
	}
}

func TestBenchGenerateReproducible(t *testing.T) {
	lab := newLab(t)
	req := &dto.GenerateRequest{ID: 1, Count: 5, Profile: "heuristic"}

	b1, err := lab.NewBenchWithSeed(1, 777)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := lab.NewBenchWithSeed(1, 777)
	if err != nil {
		t.Fatal(err)
	}

	r1, err := b1.Generate(req)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := b2.Generate(req)
	if err != nil {
		t.Fatal(err)
	}

	if len(r1.Picks) != 5 || r1.Profile != "heuristic" || r1.LabName != "euro-root" {
		t.Fatalf("result = %+v", r1)
	}
	for i, p := range r1.Picks {
		for j, n := range p.Balls {
			if !spec.ValidBall(n) || (j > 0 && p.Balls[j-1] >= n) {
				t.Fatalf("pick %d balls invalid: %v", i, p.Balls)
			}
		}
		if !spec.ValidStar(p.Stars[0]) || !spec.ValidStar(p.Stars[1]) || p.Stars[0] >= p.Stars[1] {
			t.Fatalf("pick %d stars invalid: %v", i, p.Stars)
		}
		if p2 := r2.Picks[i]; p.Balls != p2.Balls || p.Stars != p2.Stars {
			t.Fatalf("same seed should reproduce picks: %v vs %v", p, p2)
		}
	}
	if r1.State.StartCoreSnapB64U == "" || r1.State.AfterCoreSnapB64U == "" {
		t.Fatal("gen state snapshots required")
	}
}

func TestBenchGenerateReplay(t *testing.T) {
	lab := newLab(t)
	b, err := lab.NewBenchWithSeed(1, 99)
	if err != nil {
		t.Fatal(err)
	}

	first, err := b.Generate(&dto.GenerateRequest{ID: 1, Count: 3, Profile: "random"})
	if err != nil {
		t.Fatal(err)
	}

	// 帶著出生快照回放：同一批組合要能重現
	replay, err := b.Generate(&dto.GenerateRequest{
		ID:      1,
		Count:   3,
		Profile: "random",
		StartState: &dto.StartState{
			StartCoreSnapB64U: first.State.StartCoreSnapB64U,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Picks {
		if first.Picks[i].Balls != replay.Picks[i].Balls || first.Picks[i].Stars != replay.Picks[i].Stars {
			t.Fatalf("replay mismatch at %d", i)
		}
	}
}

func TestBenchGenerateValidation(t *testing.T) {
	lab := newLab(t)
	b, err := lab.NewBenchWithSeed(1, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.Generate(nil); err == nil {
		t.Fatal("nil request should fail")
	}
	if _, err := b.Generate(&dto.GenerateRequest{ID: 2}); err == nil {
		t.Fatal("mismatched dataset id should fail")
	}
	if _, err := b.Generate(&dto.GenerateRequest{ID: 1, Count: 101}); err == nil {
		t.Fatal("count above cap should fail")
	}
	if _, err := b.Generate(&dto.GenerateRequest{ID: 1, Profile: "nope"}); err == nil {
		t.Fatal("unknown profile should fail")
	}

	// count 缺省視為 1
	res, err := b.Generate(&dto.GenerateRequest{ID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Picks) != 1 {
		t.Fatalf("default count should be 1, got %d", len(res.Picks))
	}
}

func TestSimulatorSim(t *testing.T) {
	lab := newLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 2026)
	if err != nil {
		t.Fatal(err)
	}
	if s.InitSeed() != 2026 {
		t.Fatalf("init seed = %d", s.InitSeed())
	}

	rep, used, err := s.Sim(lotolab.ModeHeuristic, 500, false)
	if err != nil {
		t.Fatal(err)
	}
	if used < 0 {
		t.Fatal("elapsed time must not be negative")
	}
	sum := rep.Summary
	if sum.Trials != 500 || sum.Profile != "heuristic" || sum.LabName != "euro-root" {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.TotalStake != 500*sum.Stake {
		t.Fatalf("total stake = %v", sum.TotalStake)
	}
	if got := float64(sum.Wins) / 500; absDiff(got, sum.WinRate) > 1e-9 {
		t.Fatalf("win rate %v vs wins %d", sum.WinRate, sum.Wins)
	}

	if _, _, err := s.Sim(lotolab.ModeHeuristic, 0, false); err == nil {
		t.Fatal("zero trials should fail")
	}
}

func TestSimulatorSimMP(t *testing.T) {
	lab := newLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 31337)
	if err != nil {
		t.Fatal(err)
	}

	rep, _, err := s.SimMP(lotolab.ModeRandom, 250, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	sum := rep.Summary
	if sum.Trials != 1000 {
		t.Fatalf("merged trials = %d", sum.Trials)
	}
	if sum.Fallbacks != 0 {
		t.Fatalf("random profile has no fallback path: %d", sum.Fallbacks)
	}

	if _, _, err := s.SimMP(lotolab.ModeRandom, 10, 0, false); err == nil {
		t.Fatal("zero workers should fail")
	}
}

func TestSimulatorTheory(t *testing.T) {
	lab := newLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 808)
	if err != nil {
		t.Fatal(err)
	}

	const trials = 100_000
	rep, _, err := s.SimTheory(trials, false)
	if err != nil {
		t.Fatal(err)
	}
	sum := rep.Summary
	if sum.Trials != trials || sum.Profile != "theory" {
		t.Fatalf("summary = %+v", sum)
	}
	// 中獎率應落在理論值附近（100k 局下 ±0.008 約為 11 個標準差）
	theo := spec.WinProbability()
	if absDiff(sum.WinRate, theo) > 0.008 {
		t.Fatalf("win rate %v too far from theoretical %v", sum.WinRate, theo)
	}
	if sum.Fallbacks != 0 {
		t.Fatal("theory path has no fallback")
	}
}

func TestSimulatorCompare(t *testing.T) {
	lab := newLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 55)
	if err != nil {
		t.Fatal(err)
	}

	cmp, _, err := s.Compare(100, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.A == nil || cmp.B == nil {
		t.Fatal("comparison sides missing")
	}
	if cmp.A.Profile != "heuristic" || cmp.B.Profile != "random" {
		t.Fatalf("profiles = %s / %s", cmp.A.Profile, cmp.B.Profile)
	}
	if cmp.A.Trials != 200 || cmp.B.Trials != 200 {
		t.Fatalf("trials = %d / %d", cmp.A.Trials, cmp.B.Trials)
	}
}

func TestNewSimulatorByJSON(t *testing.T) {
	lab := newLab(t)

	override := spec.Default()
	override.LabName = "override"
	override.DatasetID = 1
	override.DrawsFile = "euro.csv"
	override.Score.Window = 5
	raw, err := json.Marshal(override)
	if err != nil {
		t.Fatal(err)
	}

	s, err := lab.NewSimulatorByJSON(raw, 4127)
	if err != nil {
		t.Fatal(err)
	}
	if s.LabName != "override" {
		t.Fatalf("lab name = %s", s.LabName)
	}

	// 設定宣告的資料集必須存在於 catalog
	override.DatasetID = 99
	raw, _ = json.Marshal(override)
	if _, err := lab.NewSimulatorByJSON(raw, 4127); err == nil {
		t.Fatal("unknown dataset id should fail")
	}
}

func TestLabRuntimeGenerate(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	ctx := context.Background()
	res, err := rt.Generate(ctx, &dto.GenerateRequest{ID: 1, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Picks) != 2 {
		t.Fatalf("picks = %d", len(res.Picks))
	}

	// 名稱路由：ID 缺省時用 LabName 找資料集
	res, err = rt.Generate(ctx, &dto.GenerateRequest{LabName: "euro-root", Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != 1 {
		t.Fatalf("routed id = %d", res.ID)
	}

	if _, err := rt.Generate(ctx, &dto.GenerateRequest{ID: 42}); err == nil {
		t.Fatal("unknown dataset should fail")
	}

	ms := rt.PoolMetrics()
	if len(ms) != 1 || ms[0].PoolSize != 2 || ms[0].ID != 1 {
		t.Fatalf("metrics = %+v", ms)
	}
	if ms[0].Available != 2 || ms[0].Inflight != 0 {
		t.Fatalf("pool should be idle: %+v", ms[0])
	}
}

func TestLabRuntimeClose(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(1)
	if err != nil {
		t.Fatal(err)
	}

	rt.Close()
	rt.Close() // Close 可重入
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("closed=%v reason=%q", rt.Closed(), rt.ClosedReason())
	}
	if _, err := rt.Generate(context.Background(), &dto.GenerateRequest{ID: 1}); err == nil {
		t.Fatal("generate after close should fail")
	}
}

func TestLabRuntimeCanceledContext(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(1)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rt.Generate(ctx, &dto.GenerateRequest{ID: 1}); err == nil {
		t.Fatal("canceled context should fail")
	}
}

func TestDevSimulatorPicksRestore(t *testing.T) {
	lab := newLab(t)
	d, err := lab.NewDevSimulator(1, 606)
	if err != nil {
		t.Fatal(err)
	}

	rep, err := d.Picks("heuristic", 150) // 會分多批
	if err != nil {
		t.Fatal(err)
	}
	if rep.Count != 150 || len(rep.Picks) != 150 {
		t.Fatalf("picks = %d", rep.Count)
	}
	if rep.Before == "" || rep.After == "" {
		t.Fatal("snapshots required")
	}

	again, err := d.RestorePicks(rep.Before, "heuristic", 150)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rep.Picks {
		if rep.Picks[i].Balls != again.Picks[i].Balls || rep.Picks[i].Stars != again.Picks[i].Stars {
			t.Fatalf("restore mismatch at %d", i)
		}
	}

	if _, err := d.Picks("heuristic", 0); err == nil {
		t.Fatal("count below 1 should fail")
	}
	if _, err := d.Picks("heuristic", 5001); err == nil {
		t.Fatal("count above cap should fail")
	}
}

func TestDevSimulatorSimRestore(t *testing.T) {
	lab := newLab(t)
	d, err := lab.NewDevSimulator(1, 321)
	if err != nil {
		t.Fatal(err)
	}

	rep, err := d.Sim("random", 400)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Stat == nil || rep.Before == "" || rep.After == "" {
		t.Fatalf("report = %+v", rep)
	}

	again, err := d.RestoreSim(rep.Before, "random", 400)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Stat.Summary.TotalPayout != again.Stat.Summary.TotalPayout ||
		rep.Stat.Summary.Wins != again.Stat.Summary.Wins {
		t.Fatal("restored simulation should reproduce the same statistics")
	}

	if _, err := d.Sim("random", 3_000_001); err == nil {
		t.Fatal("trials above cap should fail")
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
