package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/server/httperr"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
)

// Analyze 分析「實際下注紀錄」：POST body 為注單 CSV。
//
// query 參數：
//   - stake：每注注金（缺省 3.50）
//   - sacred：必含號碼（缺省 13），用於統計含該號的注單比例
//
// 回傳逐項統計（實際 ROI、命中率與信賴區間、對照理論值）以及 CSV 清洗結果。
func Analyze(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stake := 3.50
	if s := r.URL.Query().Get("stake"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			httperr.Errs(w, errs.NewWarn("stake must be positive number"))
			return
		}
		stake = v
	}
	sacred := 13
	if s := r.URL.Query().Get("sacred"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || !spec.ValidBall(v) {
			httperr.Errs(w, errs.NewWarn("sacred must be a valid ball number"))
			return
		}
		sacred = v
	}

	// 嘗試解析 CSV（上限 5MB）
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	tickets, clean, err := draws.LoadTicketsCSV(r.Body)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "parse tickets csv failed"))
		return
	}
	if len(tickets) == 0 {
		httperr.Errs(w, errs.NewWarn("no valid tickets"))
		return
	}

	type AnalyzeResponse struct {
		Analysis *stats.TicketAnalysis `json:"analysis"`
		Clean    *draws.CleanReport    `json:"clean"`
	}
	resp := AnalyzeResponse{
		Analysis: stats.AnalyzeTickets(tickets, stake, sacred),
		Clean:    clean,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
