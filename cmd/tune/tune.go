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
	"embed"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/zintix-labs/lotolab/demo"
	"github.com/zintix-labs/lotolab/spec"
	"github.com/zintix-labs/lotolab/tuner"
)

//go:embed tune_cfg.yaml
var tuneCfg embed.FS

var tuneID spec.DatasetID = 1
var seed int64

func main() {
	flag.Var(idFlag{&tuneID}, "dataset", "target dataset id")
	flag.Int64Var(&seed, "seed", 4127483647, "base seed for the sweep")
	flag.Parse()
	lab, err := demo.NewLab()
	if err != nil {
		log.Fatal(err)
	}
	t, err := tuner.New(tuneCfg, "tune_cfg.yaml")
	if err != nil {
		log.Fatal(err)
	}
	if err := t.Run(tuneID, lab, seed); err != nil {
		log.Fatal(err)
	}
}

type idFlag struct{ p *spec.DatasetID }

func (f idFlag) String() string { return fmt.Sprint(uint(*f.p)) }
func (f idFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.DatasetID(uint(u))
	return nil
}
