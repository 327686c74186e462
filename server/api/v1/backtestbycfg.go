package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/server/httperr"
)

// BacktestByJson 傳入 JSON設定格式 以及希望模擬的局數。
//
// 調參用：設定內的 dataset_id 必須存在於 catalog（歷史資料仍由 catalog 提供），
// 但評分權重/約束/注金全部以呼叫端帶入的為準。
func (bh *BacktestHandler) BacktestByJson(w http.ResponseWriter, r *http.Request) {
	type BacktestRequestByJson struct {
		Profile    string          `json:"profile,omitempty"`
		Trials     int             `json:"trials"`
		Workers    int             `json:"workers,omitempty"`
		LabSetting json.RawMessage `json:"cfg"`
		Seed       *int64          `json:"seed,omitempty"`
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. decode request
	req := new(BacktestRequestByJson)
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.Wrap(err, "json decode failed"))
		return
	}

	// 2. vaild trials/workers
	if req.Trials < 1 || req.Trials > maxBacktestTrials {
		httperr.Errs(w, errs.NewWarn("trials must be between 1 to 1,000,000"))
		return
	}
	workers := max(1, req.Workers)
	if workers > 64 {
		httperr.Errs(w, errs.NewWarn("workers must be between 1 and 64"))
		return
	}
	if req.Seed == nil {
		v, err := randomSeed()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		req.Seed = &v
	}

	// 3. NewSimulator
	sim, err := bh.Lab.NewSimulatorByJSON(req.LabSetting, *req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rep, used, err := runProfile(sim, req.Profile, req.Trials, workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	// 4. 回傳Json
	resp := dto.NewBacktestResultDTO(rep, used, *req.Seed)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
