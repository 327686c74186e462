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

package demo

import (
	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/catalog"
	"github.com/zintix-labs/lotolab/demo/demo_configs"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/sdk/core"
	"github.com/zintix-labs/lotolab/server/logger"
	"github.com/zintix-labs/lotolab/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := lotolab.NewAuto(
		core.Default(),
		lotolab.Datasets(demo_configs.FS),
	)
	if err != nil {
		return nil, errs.NewFatal("new lotolab failed:" + err.Error())
	}
	log, _ := logger.NewAsync(1024, logger.ModeDev)
	scfg := &svrcfg.SvrCfg{
		Log:         log,
		GenPoolSize: 1,
		Lab:         lab,
	}
	return scfg, nil
}

func NewLab() (*lotolab.Lab, error) {
	return lotolab.NewAuto(
		core.Default(),
		lotolab.Datasets(demo_configs.FS),
	)
}
