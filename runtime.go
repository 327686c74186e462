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

package lotolab

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
)

type LabRuntime struct {
	// build-time 來源（只讀引用）
	lab *Lab // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個資料集一個 pool）
	pools map[spec.DatasetID]*GenPool
	ids   []spec.DatasetID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定（一期先簡單，之後可擴展）
	poolSize int // 每個資料集的池大小（BuildRuntime(n) 的 n）
}

func (rt *LabRuntime) Generate(ctx context.Context, req *dto.GenerateRequest) (dto.GenerateResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.GenerateResult{}, errs.NewWarn("generate canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.GenerateResult{}, errs.NewFatal("lab runtime closed: " + rt.ClosedReason())
	default:
	}

	if req == nil {
		return dto.GenerateResult{}, errs.NewWarn("nil request")
	}

	id := req.ID
	if id == 0 && req.LabName != "" {
		if ent, ok := rt.lab.EntryByName(req.LabName); ok {
			id = ent.ID
			req.ID = id
		}
	}

	gp, ok := rt.pools[id]
	if !ok {
		return dto.GenerateResult{}, errs.NewWarn("dataset id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return gp.Generate(ctx, req)
}

// IDs 回傳 runtime 服務中的資料集編號（固定順序）。
func (rt *LabRuntime) IDs() []spec.DatasetID {
	return rt.ids
}

// Lab 回傳 build-time 來源（只讀用途：catalog 查表、建 Simulator）。
func (rt *LabRuntime) Lab() *Lab {
	return rt.lab
}

// PoolMetrics 回傳每個資料集池的觀測快照。
func (rt *LabRuntime) PoolMetrics() []GenPoolMetrics {
	ms := make([]GenPoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		if gp, ok := rt.pools[id]; ok {
			ms = append(ms, gp.Metrics())
		}
	}
	return ms
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *LabRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *LabRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		for _, id := range rt.ids {
			if gp, ok := rt.pools[id]; ok {
				gp.Close()
			}
		}
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *LabRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *LabRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
