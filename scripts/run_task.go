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

package main

import (
	"fmt"
	"os"
	"os/exec"
)

// runSim 對應 Makefile:
//
// sim:
//
//	go run ./cmd/run [flags...]
//
// 額外參數會原樣轉交給 cmd/run（例如 -trials 100000 -profile compare）。
func runSim(extra []string) {
	PrintGreen("running backtest")
	args := append([]string{"run", "./cmd/run"}, extra...)
	passthrough(args)
}

// runSweep 對應 Makefile:
//
// sweep:
//
//	go run ./cmd/tune [flags...]
func runSweep(extra []string) {
	PrintGreen("running weight sweep")
	args := append([]string{"run", "./cmd/tune"}, extra...)
	passthrough(args)
}

func passthrough(args []string) {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("task failed: %v", err))
		os.Exit(1)
	}
}
