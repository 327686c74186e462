package draws

import (
	"fmt"

	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
)

// History 歷史開獎序列（插入順序 = 時間順序）。
//
// 建立後唯讀：所有讀取方法都不改變內部狀態，可在多個 goroutine 間共享。
type History struct {
	draws []Draw
}

// NewHistory 以驗證過的 Draw 序列建立 History。
//
// 空歷史視為設定錯誤：回測開始前就拒絕，不容忍到模擬途中。
func NewHistory(ds []Draw) (*History, error) {
	if len(ds) == 0 {
		return nil, errs.NewFatal("empty draw history")
	}
	for i := 1; i < len(ds); i++ {
		if ds[i].Seq <= ds[i-1].Seq {
			return nil, errs.NewFatal(fmt.Sprintf("draw history out of order at seq %d", ds[i].Seq))
		}
	}
	cp := make([]Draw, len(ds))
	copy(cp, ds)
	return &History{draws: cp}, nil
}

// Len 回傳期數。
func (h *History) Len() int { return len(h.draws) }

// At 回傳第 i 期（0-based，時間順序）。
func (h *History) At(i int) Draw { return h.draws[i] }

// Latest 回傳最後一期。
func (h *History) Latest() Draw { return h.draws[len(h.draws)-1] }

// NextSeq 回傳「下一期」的期數（= 最後一期期數 + 1），gap 評分的基準點。
func (h *History) NextSeq() int { return h.Latest().Seq + 1 }

// Tail 回傳最後 n 期的唯讀切片；n 大於期數時夾到全歷史（不越界、不報錯）。
func (h *History) Tail(n int) []Draw {
	if n >= len(h.draws) {
		return h.draws
	}
	return h.draws[len(h.draws)-n:]
}

// Appearances 回傳號碼 n 出現過的期數列表（遞增）。
func (h *History) Appearances(n int) []int {
	var seqs []int
	for _, d := range h.draws {
		if d.HasBall(n) {
			seqs = append(seqs, d.Seq)
		}
	}
	return seqs
}

// ContainsCombination 回傳排序後的 5 碼組合是否在最後 window 期內出現過。
//
// window 0 表示比對全歷史。供可選的 uniqueness 約束使用。
func (h *History) ContainsCombination(sorted [spec.NumBalls]int, window int) bool {
	ds := h.draws
	if window > 0 && window < len(ds) {
		ds = ds[len(ds)-window:]
	}
	for _, d := range ds {
		if d.Balls == sorted {
			return true
		}
	}
	return false
}

// BallCounts 回傳每個號碼於全歷史出現的次數（index 1..BallMax）。
func (h *History) BallCounts() [spec.BallMax + 1]int {
	var c [spec.BallMax + 1]int
	for _, d := range h.draws {
		for _, b := range d.Balls {
			c[b]++
		}
	}
	return c
}

// Sums 回傳每期主球總和（時間順序）。
func (h *History) Sums() []float64 {
	out := make([]float64, len(h.draws))
	for i, d := range h.draws {
		out[i] = float64(d.SumBalls())
	}
	return out
}
