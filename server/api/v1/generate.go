package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/server/httperr"
	"github.com/zintix-labs/lotolab/server/svrcfg"
)

func (c *GenerateHandler) Generate(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeGenerateRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 請求解析完成，設置超時 context
	ctx := q.Context()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 開始產號
	result, err := c.rt.Generate(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Metrics 回傳各資料集池的觀測快照（pull 式，不綁 metrics SDK）。
func (c *GenerateHandler) Metrics(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.rt.PoolMetrics())
}

// ============================================================
// ** GenerateHandler **
// ============================================================

type GenerateHandler struct {
	rt *lotolab.LabRuntime
}

func NewGenerateHandler(sCfg *svrcfg.SvrCfg) (*GenerateHandler, error) {
	rt, err := sCfg.Lab.BuildRuntime(sCfg.GenPoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build generate handler error")
	}
	return &GenerateHandler{rt: rt}, nil
}
