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

package api

import (
	"log/slog"

	"github.com/zintix-labs/lotolab/server/api/dev"
	"github.com/zintix-labs/lotolab/server/api/index"
	v1 "github.com/zintix-labs/lotolab/server/api/v1"
	"github.com/zintix-labs/lotolab/server/netsvr"
	"github.com/zintix-labs/lotolab/server/netsvr/middleware"
	"github.com/zintix-labs/lotolab/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerIndex(svr)                // 2. 註冊主頁
	dev.Register(svr, sCfg)           // 3. 開發者工具頁
	registerV1API(svr, sCfg)          // 4. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover)
	svr.Use(middleware.Compression)
}

// 註冊主頁
func registerIndex(svr netsvr.NetSvr) {
	svr.Get("/", index.IndexHandlerFn)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	g, err := v1.NewGenerateHandler(sCfg)
	if err != nil {
		return err
	}
	b, err := v1.NewBacktestHandler(sCfg.Lab)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/generate", g.Generate)
		vOne.Get("/backtest", b.Backtest)
		vOne.Get("/compare", b.Compare)
		vOne.Get("/tests", b.Tests)
		vOne.Get("/stat", b.Stat)
		vOne.Get("/metrics", g.Metrics)

		vOne.Post("/generate", g.Generate)
		vOne.Post("/backtest", b.Backtest)
		vOne.Post("/backtestbycfg", b.BacktestByJson)
		vOne.Post("/compare", b.Compare)
		vOne.Post("/analyze", v1.Analyze)
	})
	return nil
}
