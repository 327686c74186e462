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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/lotolab/corefmt"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
)

type GenerateRequest struct {
	LabName string         `json:"lab"`               // 要用的 lab（名稱路由，可選）
	ID      spec.DatasetID `json:"id"`                // 資料集編號
	Count   int            `json:"count"`             // 要產幾組（預設 1）
	Profile string         `json:"profile,omitempty"` // heuristic（預設）/ random
	// StartState（可選）：帶 start_b64u 時從該 RNG 快照續產，用於回放/審計。
	StartState *StartState `json:"start_state,omitempty"`
}

// DecodeGenerateRequest 會把 HTTP 請求解碼成 GenerateRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（lab/id/count/profile）。
//     注意：GET 建議僅用於「新局」或簡單測試；回放請用 POST 帶 start_state。
//   - POST：從 JSON body 反序列化（支援 start_state）。
//
// StartState（start_state）語意：
//   - start_state 缺省 / 為 null / 為空物件：視為「新請求」。
//   - start_state.start_b64u 有值：視為「回放（replay）」：從該 RNG 快照續產，
//     相同輸入條件下應重現同一批組合。
//
// 注意：
//   - 這裡只負責「解碼（decode）」與基本型別轉換，不做任何業務合法性校驗；
//     合法性（例如該 ID 是否存在、profile 是否支援）應由上層（Bench/Runtime）決定。
//   - 為避免過大 body 影響服務，POST 會對 body 做大小限制（預設 1MiB）。
//   - POST 會開啟 DisallowUnknownFields()，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func DecodeGenerateRequest(r *http.Request) (*GenerateRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(GenerateRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.LabName = q.Get("lab")
		req.Profile = q.Get("profile")

		if s := q.Get("id"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid id: %v", err))
			}
			req.ID = spec.DatasetID(u)
		}

		if s := q.Get("count"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid count: %v", err))
			}
			req.Count = v
		}

		return req, nil

	case http.MethodPost:
		// 防止 body 過大（預設 1MiB）
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}

type BacktestRequest struct {
	LabName string         `json:"lab"`
	ID      spec.DatasetID `json:"id"`
	Trials  int            `json:"trials"`            // 0 = 用 lab setting 的預設
	Workers int            `json:"workers"`           // 0 = 用 lab setting 的預設
	Profile string         `json:"profile,omitempty"` // heuristic（預設）/ random / theory
	Seed    int64          `json:"seed,omitempty"`    // 0 = 隨機 seed
}

// DecodeBacktestRequest 會把 HTTP 請求解碼成 BacktestRequest。
//
// 與 DecodeGenerateRequest 相同的 GET/POST 語意與限制。
func DecodeBacktestRequest(r *http.Request) (*BacktestRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(BacktestRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.LabName = q.Get("lab")
		req.Profile = q.Get("profile")

		if s := q.Get("id"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid id: %v", err))
			}
			req.ID = spec.DatasetID(u)
		}

		if s := q.Get("trials"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid trials: %v", err))
			}
			req.Trials = v
		}

		if s := q.Get("workers"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid workers: %v", err))
			}
			req.Workers = v
		}

		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
			}
			req.Seed = v
		}

		return req, nil

	case http.MethodPost:
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}

// StartState 是由呼叫端帶入的「引擎可恢復狀態」（可選）。
//
// 設計目標：
//   - 讓產號引擎維持純計算器（stateless / deterministic），「可回放」所需的狀態由呼叫端保存與回送。
//   - 新請求：start_state 缺省即可；引擎會自行起始 RNG 並在回應中回傳 Start/After。
//   - 回放（Replay）：帶入當初記錄的 start_b64u，可在相同輸入條件下重現同一批組合。
//   - 續產（Resume）：把上一次回應的 after_b64u 當作新的 start_b64u，以延續 RNG 流水。
//
// 重要約束：
//   - Request 只允許提供 Start（start_b64u）；After（after_b64u）只會出現在回應（GenState）。
type StartState struct {
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

func (ss *StartState) HasPayload() bool {
	if ss == nil {
		return false
	}
	return ss.StartCoreSnapB64U != ""
}

// Snap 解出起始快照；缺省回傳 nil（表示新請求）。
func (ss *StartState) Snap() ([]byte, error) {
	if !ss.HasPayload() {
		return nil, nil
	}
	snap, err := corefmt.DecodeBase64URL(ss.StartCoreSnapB64U)
	if err != nil {
		return nil, errs.NewWarn("core snap decode failed " + err.Error())
	}
	return snap, nil
}
