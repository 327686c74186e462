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

package tuner_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/stats"
	"github.com/zintix-labs/lotolab/tuner"
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
`

const labYAML = `lab_name: euro-sweep
dataset_id: 1
draws_file: euro.csv
`

const sweepYAML = `profile: heuristic
trials: 100
workers: 1
top_n: 3
metric: roi
windows: [5, 7]
w_recur: [0.4]
w_gap: [0.3]
w_move: [0.3]
`

func newLab(t *testing.T) *lotolab.Lab {
	t.Helper()
	data := fstest.MapFS{
		"euro.yaml": &fstest.MapFile{Data: []byte(labYAML)},
		"euro.csv":  &fstest.MapFile{Data: []byte(drawsCSV)},
	}
	lab, err := lotolab.NewAuto(core.Default(), lotolab.Datasets(data))
	if err != nil {
		t.Fatal(err)
	}
	return lab
}

func newTuner(t *testing.T, cfg string) *tuner.Tuner {
	t.Helper()
	fsys := fstest.MapFS{"sweep.yaml": &fstest.MapFile{Data: []byte(cfg)}}
	tn, err := tuner.New(fsys, "sweep.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return tn
}

func TestNewRejectsBadSettings(t *testing.T) {
	cases := []string{
		"trials: 10",                        // 低於最小局數
		"trials: 100\nmetric: unknown",      // 不支援的指標
		"trials: 100\nprofile: nope",        // 不存在的 profile
		"trials: 100\nwindows: [0]",         // 非法窗格
		"trials: 100\nw_recur: [-1]",        // 負權重
		"trials: [not yaml",                 // 壞 YAML
	}
	for i, c := range cases {
		fsys := fstest.MapFS{"sweep.yaml": &fstest.MapFile{Data: []byte(c)}}
		if _, err := tuner.New(fsys, "sweep.yaml"); err == nil {
			t.Fatalf("case %d should be rejected: %q", i, c)
		}
	}
	if _, err := tuner.New(fstest.MapFS{}, "missing.yaml"); err == nil {
		t.Fatal("missing config file should be rejected")
	}
}

func TestRunSweep(t *testing.T) {
	t.Chdir(t.TempDir())
	lab := newLab(t)
	tn := newTuner(t, sweepYAML)

	if err := tn.Run(1, lab, 9); err != nil {
		t.Fatal(err)
	}

	results := tn.Results()
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (windows 5 and 7)", len(results))
	}
	for i, r := range results {
		// 權重歸一化後總和為 1
		if math.Abs(r.WRecur+r.WGap+r.WMove-1.0) > 1e-9 {
			t.Fatalf("weights not normalized: %+v", r)
		}
		if r.Window != 5 && r.Window != 7 {
			t.Fatalf("unexpected window: %+v", r)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Fatal("results must be sorted by score descending")
		}
	}

	// 落地檔要能解壓回同一批結果
	raw, err := os.ReadFile(filepath.Join("build", "tuner", "sweep_1.json.zst"))
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	jsonBytes, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	var saved []tuner.Result
	if err := json.Unmarshal(jsonBytes, &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved) != len(results) {
		t.Fatalf("saved %d results, want %d", len(saved), len(results))
	}
}

func TestRunSweepDeterministicSeeds(t *testing.T) {
	t.Chdir(t.TempDir())
	lab := newLab(t)

	tn1 := newTuner(t, sweepYAML)
	if err := tn1.Run(1, lab, 1234); err != nil {
		t.Fatal(err)
	}
	tn2 := newTuner(t, sweepYAML)
	if err := tn2.Run(1, lab, 1234); err != nil {
		t.Fatal(err)
	}

	r1, r2 := tn1.Results(), tn2.Results()
	if len(r1) != len(r2) {
		t.Fatal("result counts differ")
	}
	for i := range r1 {
		if r1[i].Seed != r2[i].Seed || r1[i].ROI != r2[i].ROI {
			t.Fatalf("sweep not reproducible at %d: %+v vs %+v", i, r1[i], r2[i])
		}
	}
}

func TestRegisterEval(t *testing.T) {
	t.Chdir(t.TempDir())
	lab := newLab(t)
	tn := newTuner(t, sweepYAML)

	// 自訂 metric：以中獎率為分數
	tn.RegisterEval(func(r *stats.BacktestReport) float64 { return r.Summary.WinRate })
	if err := tn.Run(1, lab, 77); err != nil {
		t.Fatal(err)
	}
	for _, r := range tn.Results() {
		if r.Score != r.WinRate {
			t.Fatalf("custom eval not applied: %+v", r)
		}
	}
	if err := tn.Run(99, lab, 77); err == nil {
		t.Fatal("unknown dataset id should fail")
	}
}

func TestRunEmptyGrid(t *testing.T) {
	t.Chdir(t.TempDir())
	lab := newLab(t)
	tn := newTuner(t, "trials: 100\nw_recur: [0]\nw_gap: [0]\nw_move: [0]\n")
	if err := tn.Run(1, lab, 5); err == nil {
		t.Fatal("all-zero weight grid should fail")
	}
}
