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
	"github.com/zintix-labs/lotolab/corefmt"
	"github.com/zintix-labs/lotolab/dto"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/stats"
)

// DevSimulator
//
// 只提供給Dev模式使用的模擬器，單線(不併發)，重點在可審計、可重現
type DevSimulator struct {
	sim      *Simulator // 只開放Sim功能
	b        *Bench     // 同步seed
	before   []byte
	after    []byte
	before64 string
	after64  string
}

type DevPickReport struct {
	Before    string        `json:"start_b64u"`
	After     string        `json:"after_b64u"`
	Count     int           `json:"count"`
	Fallbacks int           `json:"fallbacks"`
	Picks     []dto.PickDTO `json:"picks"`
}

func (d *DevSimulator) pickBatch(profile string, count int) (dto.GenerateResult, error) {
	req := &dto.GenerateRequest{
		LabName: d.b.labName,
		ID:      d.b.id,
		Count:   count,
		Profile: profile,
	}
	return d.b.Generate(req)
}

func (d *DevSimulator) Picks(profile string, count int) (DevPickReport, error) {
	// 限制檢查
	if count < 1 || count > 5000 {
		return DevPickReport{}, errs.NewWarn("count must be between 1 and 5,000")
	}

	// 分批產號（單批上限由 Bench 控制）
	picks := make([]dto.PickDTO, 0, count)
	fallbacks := 0
	before, after := "", ""
	for remain := count; remain > 0; {
		batch := min(remain, maxPicks)
		result, err := d.pickBatch(profile, batch)
		if err != nil {
			return DevPickReport{}, errs.Wrap(err, "generate error")
		}
		if before == "" {
			before = result.State.StartCoreSnapB64U
		}
		after = result.State.AfterCoreSnapB64U
		picks = append(picks, result.Picks...)
		fallbacks += result.Fallbacks
		remain -= batch
	}

	de := DevPickReport{
		Before:    before,
		After:     after,
		Count:     len(picks),
		Fallbacks: fallbacks,
		Picks:     picks,
	}
	return de, nil
}

func (d *DevSimulator) RestorePicks(be64 string, profile string, count int) (DevPickReport, error) {
	// 限制檢查
	if count < 1 || count > 5000 {
		return DevPickReport{}, errs.NewWarn("count must be between 1 and 5,000")
	}
	// 解析seed
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevPickReport{}, errs.NewWarn("decode seed failed" + err.Error())
	}
	// restore
	if err := d.b.RestoreCore(be); err != nil {
		return DevPickReport{}, errs.NewWarn("bench restore failed")
	}
	return d.Picks(profile, count)
}

type DevSimReport struct {
	Before string                `json:"before"`
	After  string                `json:"after"`
	Stat   *stats.BacktestReport `json:"statistic"`
}

func (d *DevSimulator) Sim(profile string, trials int) (DevSimReport, error) {
	// 先存 before 快照
	b := d.sim.bBuf[0]
	be, err := b.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	be64 := corefmt.EncodeBase64URL(be)
	d.before = be
	d.before64 = be64

	// Trial
	mode, err := ParseMode(profile)
	if err != nil {
		return DevSimReport{}, err
	}
	if trials < 1 || trials > 3_000_000 {
		return DevSimReport{}, errs.NewWarn("trials must be between 1 and 3,000,000")
	}
	stat, _, err := d.sim.Sim(mode, trials, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	// 再存 after 快照
	af, err := b.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	af64 := corefmt.EncodeBase64URL(af)
	d.after = af
	d.after64 = af64

	return DevSimReport{
		Before: be64,
		After:  af64,
		Stat:   stat,
	}, nil
}

func (d *DevSimulator) RestoreSim(be64 string, profile string, trials int) (DevSimReport, error) {
	// 反解析 string -> []byte
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode seed failed")
	}
	d.before = be
	d.before64 = be64

	// restore
	if err := d.sim.bBuf[0].RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}

	return d.Sim(profile, trials)
}
