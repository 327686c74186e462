package v1

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/server/httperr"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
)

// 回測局數上限（單一 HTTP 請求）。更大量的收斂實驗請走 cmd/run。
const maxBacktestTrials = 1_000_000

type BacktestHandler struct {
	Lab *lotolab.Lab
}

func NewBacktestHandler(lab *lotolab.Lab) (*BacktestHandler, error) {
	return &BacktestHandler{Lab: lab}, nil
}

// resolveID 允許用 id 或 lab 名稱路由資料集。
func (bh *BacktestHandler) resolveID(req *dto.BacktestRequest) (spec.DatasetID, error) {
	if _, ok := bh.Lab.EntryById(req.ID); ok {
		return req.ID, nil
	}
	if name := strings.TrimSpace(req.LabName); name != "" {
		if ent, ok := bh.Lab.EntryByName(name); ok {
			return ent.ID, nil
		}
	}
	return 0, errs.NewWarn("dataset not found")
}

func (bh *BacktestHandler) Backtest(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeBacktestRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 業務檢驗
	id, err := bh.resolveID(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	set, err := bh.Lab.LabSettingById(id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	trials := req.Trials
	if trials == 0 {
		trials = set.Sim.Trials
	}
	if trials < 1 || trials > maxBacktestTrials {
		httperr.Errs(w, errs.NewWarn("trials must be between 1 to 1,000,000"))
		return
	}
	workers := req.Workers
	if workers == 0 {
		workers = set.Sim.Workers
	}
	if workers < 1 || workers > 64 {
		httperr.Errs(w, errs.NewWarn("workers must be between 1 and 64"))
		return
	}
	seed := req.Seed
	if seed == 0 {
		v, err := randomSeed()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		seed = v
	}

	sim, err := bh.Lab.NewSimulatorWithSeed(id, seed)
	if err != nil {
		// 這裡的錯誤來自 lab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", id)))
		return
	}

	rep, used, err := runProfile(sim, req.Profile, trials, workers)
	if err != nil {
		// 這裡的錯誤來自 simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}

	resp := dto.NewBacktestResultDTO(rep, used, seed)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (bh *BacktestHandler) Compare(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeBacktestRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := bh.resolveID(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	set, err := bh.Lab.LabSettingById(id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	trials := req.Trials
	if trials == 0 {
		trials = set.Sim.Trials
	}
	if trials < 1 || trials > maxBacktestTrials {
		httperr.Errs(w, errs.NewWarn("trials must be between 1 to 1,000,000"))
		return
	}
	workers := req.Workers
	if workers == 0 {
		workers = set.Sim.Workers
	}
	if workers < 1 || workers > 64 {
		httperr.Errs(w, errs.NewWarn("workers must be between 1 and 64"))
		return
	}
	seed := req.Seed
	if seed == 0 {
		v, err := randomSeed()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		seed = v
	}

	sim, err := bh.Lab.NewSimulatorWithSeed(id, seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", id)))
		return
	}
	cmp, used, err := sim.Compare(trials, workers, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "compare err"))
		return
	}

	resp := dto.CompareResult{
		Comparison: cmp,
		UsedMs:     used.Milliseconds(),
		Seed:       seed,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Tests 對資料集歷史跑假設檢定（均勻性 / 總和常態 / 特定號碼獨立性）。
func (bh *BacktestHandler) Tests(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := queryDatasetID(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	set, err := bh.Lab.LabSettingById(id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	hist, err := bh.Lab.HistoryById(id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rep := stats.TestHistory(hist, set.Constraint.SacredNumber)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rep)
}

// Stat 回傳 catalog summary（資料集清單、筆數、注金、可用 profile）。
func (bh *BacktestHandler) Stat(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum, err := bh.Lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sum)
}

// runProfile 把 profile 字串對應到模擬路徑：
//   - "theory"     → SimTheory（獎級查表快路徑）
//   - 其餘         → ParseMode（heuristic/random），workers > 1 時走 SimMP
func runProfile(sim *lotolab.Simulator, profile string, trials, workers int) (*stats.BacktestReport, time.Duration, error) {
	if strings.EqualFold(strings.TrimSpace(profile), "theory") {
		return sim.SimTheory(trials, false)
	}
	mode, err := lotolab.ParseMode(profile)
	if err != nil {
		return nil, 0, err
	}
	if workers > 1 {
		// SimMP 的 trials 是「每個 worker」的局數；對外語意是總局數
		per := trials / workers
		if per < 1 {
			per = 1
		}
		return sim.SimMP(mode, per, workers, false)
	}
	return sim.Sim(mode, trials, false)
}

func queryDatasetID(q *http.Request) (spec.DatasetID, error) {
	s := q.URL.Query().Get("id")
	if s == "" {
		return 0, errs.NewWarn("id is required")
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.NewWarn("id must be non-negative integer")
	}
	return spec.DatasetID(u), nil
}

// randomSeed 使用 crypto/rand 產生 [0, MaxInt64) 的種子。
func randomSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}
