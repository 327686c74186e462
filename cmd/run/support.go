package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/demo"
	"github.com/zintix-labs/lotolab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        spec.DatasetID
	worker    int
	trials    int
	profile   string
	seed      int64
	pprofmode string
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

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	cfg.id = 1
	flag.Var(idFlag{&cfg.id}, "dataset", "target dataset id")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.trials, "trials", 10000000, "trials per worker")
	flag.StringVar(&cfg.profile, "profile", "heuristic", "profile: heuristic, weighted, random, theory, compare")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	cfg.valid() // 基本檢查

	lab, err := demo.NewLab()
	if err != nil {
		log.Fatal(err)
	}
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	ent, _ := lab.EntryById(cfg.id)
	cfg.name = ent.Name
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	switch strings.ToLower(cfg.profile) {
	case "compare": // heuristic vs random 對照
		p.Printf("%s[DATASET:%s] [COMPARE] [WORKERS:%d] [TRIALS:%d]%s\n", green, cfg.name, cfg.worker, cfg.worker*cfg.trials, reset)
		cmp, _, err := s.Compare(cfg.trials, cfg.worker, true)
		if err != nil {
			log.Fatal(err)
		}
		cmp.Out()
	case "theory": // 獎級機率直抽（生成器旁路）
		p.Printf("%s[DATASET:%s] [PROFILE:theory] [TRIALS:%d]%s\n", green, cfg.name, cfg.trials, reset)
		st, used, err := s.SimTheory(cfg.trials, true)
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
	default:
		mode, err := lotolab.ParseMode(cfg.profile)
		if err != nil {
			log.Fatal(err)
		}
		if cfg.worker == 1 { // 單線程
			p.Printf("%s[DATASET:%s] [PROFILE:%s] [TRIALS:%d]%s\n", green, cfg.name, mode, cfg.trials, reset)
			st, used, err := s.Sim(mode, cfg.trials, true)
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
		} else {
			p.Printf("%s[WORKERS:%d] [DATASET:%s] [PROFILE:%s] [TRIALS:%d]%s\n", green, cfg.worker, cfg.name, mode, cfg.worker*cfg.trials, reset)
			st, used, err := s.SimMP(mode, cfg.trials, cfg.worker, true) // 併發
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
		}
	}
}

func (cfg *config) valid() {
	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}

	// 局數檢查
	if cfg.trials < 1 {
		log.Fatal("value err : trials must > 0")
	}
}
