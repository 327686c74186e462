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

// 離線分析工具：讀歷史開獎 CSV（必填）與實際投注 CSV（選填），
// 輸出清洗統計、隨機性檢定與投注績效分析。
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	drawsPath   string
	ticketsPath string
	stake       float64
	sacred      int
}

func main() {
	cfg := new(config)
	flag.StringVar(&cfg.drawsPath, "draws", "", "draw history csv (required)")
	flag.StringVar(&cfg.ticketsPath, "tickets", "", "played tickets csv (optional)")
	flag.Float64Var(&cfg.stake, "stake", 3.50, "stake per ticket")
	flag.IntVar(&cfg.sacred, "sacred", 13, "forced-inclusion ball for independence test")
	flag.Parse()

	if cfg.drawsPath == "" {
		flag.Usage()
		log.Fatal("value err : -draws is required")
	}
	if cfg.stake <= 0 {
		log.Fatal("value err : stake must > 0")
	}
	if !spec.ValidBall(cfg.sacred) {
		log.Fatalf("value err : sacred must be in [%d,%d]", spec.BallMin, spec.BallMax)
	}

	p := message.NewPrinter(language.English)

	f, err := os.Open(cfg.drawsPath)
	if err != nil {
		log.Fatal(err)
	}
	hist, clean, err := draws.LoadHistoryCSV(f)
	_ = f.Close()
	if err != nil {
		log.Fatal(err)
	}
	p.Printf("draws: %d kept (%s)\n", hist.Len(), clean)

	rep := stats.TestHistory(hist, cfg.sacred)
	printJSON("hypothesis tests", rep)

	if cfg.ticketsPath == "" {
		return
	}
	tf, err := os.Open(cfg.ticketsPath)
	if err != nil {
		log.Fatal(err)
	}
	tickets, tclean, err := draws.LoadTicketsCSV(tf)
	_ = tf.Close()
	if err != nil {
		log.Fatal(err)
	}
	p.Printf("tickets: %d kept (%s)\n", len(tickets), tclean)
	printJSON("ticket analysis", stats.AnalyzeTickets(tickets, cfg.stake, cfg.sacred))
}

func printJSON(title string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("--- %s ---\n%s\n", title, b)
}
