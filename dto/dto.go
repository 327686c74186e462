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

package dto

import (
	"time"

	"github.com/zintix-labs/lotolab/corefmt"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
)

// GenerateResult 一次產號請求的對外輸出。
type GenerateResult struct {
	LabName   string         `json:"lab"`       // Lab 名稱
	ID        spec.DatasetID `json:"id"`        // 資料集編號
	Profile   string         `json:"profile"`   // heuristic / random
	Picks     []PickDTO      `json:"picks"`     // 產出的組合
	Fallbacks int            `json:"fallbacks"` // 走 fallback 的組合數
	State     GenState       `json:"gen_state"` // RNG 狀態
}

// PickDTO 單一組合：五球升冪 + 兩星升冪。
type PickDTO struct {
	Balls    [spec.NumBalls]int `json:"balls"`
	Stars    [spec.NumStars]int `json:"stars"`
	Sum      int                `json:"sum"`
	Fallback bool               `json:"fallback,omitempty"`
}

type GenState struct {
	StartCoreSnapB64U string `json:"start_b64u"` // 必回
	AfterCoreSnapB64U string `json:"after_b64u"` // 必回
}

// NewGenState 將前後快照編成 base64url。
func NewGenState(start, after []byte) GenState {
	return GenState{
		StartCoreSnapB64U: corefmt.EncodeBase64URL(start),
		AfterCoreSnapB64U: corefmt.EncodeBase64URL(after),
	}
}

// BacktestResult 回測輸出：統計報表 + 用時 + RNG 狀態。
type BacktestResult struct {
	Report *stats.BacktestReport `json:"report"`
	UsedMs int64                 `json:"used_ms"`
	Seed   int64                 `json:"seed"`
}

func NewBacktestResultDTO(rep *stats.BacktestReport, used time.Duration, seed int64) BacktestResult {
	rep.Done()
	return BacktestResult{
		Report: rep,
		UsedMs: used.Milliseconds(),
		Seed:   seed,
	}
}

// CompareResult 雙 profile 對照輸出。
type CompareResult struct {
	Comparison *stats.Comparison `json:"comparison"`
	UsedMs     int64             `json:"used_ms"`
	Seed       int64             `json:"seed"`
}
