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

package index

import (
	"encoding/json"
	"net/http"
)

// IndexHandlerFn 回傳服務的端點清單（服務探索用，無業務邏輯）。
func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	type endpoint struct {
		Method string `json:"method"`
		Path   string `json:"path"`
		Desc   string `json:"desc"`
	}
	resp := struct {
		Service   string     `json:"service"`
		Endpoints []endpoint `json:"endpoints"`
	}{
		Service: "lotolab",
		Endpoints: []endpoint{
			{"GET/POST", "/v1/generate", "produce number combinations (heuristic or random)"},
			{"GET/POST", "/v1/backtest", "monte carlo backtest against virtual draws"},
			{"POST", "/v1/backtestbycfg", "backtest with a caller-supplied lab setting"},
			{"GET/POST", "/v1/compare", "heuristic vs random comparison report"},
			{"GET", "/v1/tests", "hypothesis tests over the draw history"},
			{"GET", "/v1/stat", "catalog summary"},
			{"GET", "/v1/metrics", "gen pool metrics"},
			{"POST", "/v1/analyze", "analyze played tickets (CSV)"},
			{"GET", "/dev", "dev panel"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
