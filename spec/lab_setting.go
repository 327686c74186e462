package spec

import (
	"fmt"

	"github.com/zintix-labs/lotolab/errs"
)

// LabSetting 包含啟動一組分析/回測所需的所有高階設定。
//
// 設計原則：所有啟發式參數都在建構期注入（explicit config），不走 process-wide 全域，
// 因此同一個行程可以同時測試多組設定。
type LabSetting struct {
	LabName    string            `yaml:"lab_name"    json:"lab_name"`
	DatasetID  DatasetID         `yaml:"dataset_id"  json:"dataset_id"`
	DrawsFile  string            `yaml:"draws_file"  json:"draws_file"` // 歷史開獎 CSV 檔名
	Profiles   []string          `yaml:"profiles"    json:"profiles"`   // 可回測的產生模式（預設 heuristic/random）
	Score      ScoreSetting      `yaml:"score"       json:"score"`
	Constraint ConstraintSetting `yaml:"constraint"  json:"constraint"`
	Sim        SimSetting        `yaml:"sim"         json:"sim"`
}

// ScoreSetting 三個評分函數與其合成權重。
//
// Window 同時作為 recurrence+amplitude 與 moving average 的滑動窗格；
// WRecur/WGap/WMove 是啟發式的調參常數，不是每次呼叫的輸入。
type ScoreSetting struct {
	Window int     `yaml:"window"  json:"window"`  // 滑動窗格（預設 7）
	Alpha  float64 `yaml:"alpha"   json:"alpha"`   // 頻率權重（預設 0.5）
	Beta   float64 `yaml:"beta"    json:"beta"`    // 振幅權重（預設 0.5）
	WRecur float64 `yaml:"w_recur" json:"w_recur"` // 合成權重：recurrence+amplitude（預設 0.4）
	WGap   float64 `yaml:"w_gap"   json:"w_gap"`   // 合成權重：gap（預設 0.3）
	WMove  float64 `yaml:"w_move"  json:"w_move"`  // 合成權重：moving average（預設 0.3）
}

// ConstraintSetting 組合生成時的約束條件。
type ConstraintSetting struct {
	SumMin       int  `yaml:"sum_min"       json:"sum_min"`       // 總和下限（預設 90）
	SumMax       int  `yaml:"sum_max"       json:"sum_max"`       // 總和上限（預設 150）
	ZoneMax      int  `yaml:"zone_max"      json:"zone_max"`      // 每區上限（預設 2）
	FocusZone    int  `yaml:"focus_zone"    json:"focus_zone"`    // 強制至少一顆的分區（預設 3）
	FocusZoneMin int  `yaml:"focus_min"     json:"focus_min"`     // 強制分區下限（預設 1）
	EvenMin      int  `yaml:"even_min"      json:"even_min"`      // 偶數下限（預設 1）
	EvenMax      int  `yaml:"even_max"      json:"even_max"`      // 偶數上限（預設 4）
	SacredNumber int  `yaml:"sacred"        json:"sacred"`        // 必含號碼（預設 13）
	MaxOffsets   int  `yaml:"max_offsets"   json:"max_offsets"`   // 視窗搜尋預算（預設 40）
	Unique       bool `yaml:"unique"        json:"unique"`        // 可選：排除歷史上出現過的組合
	UniqueWindow int  `yaml:"unique_window" json:"unique_window"` // 0 = 比對全歷史
}

// SimSetting 回測模擬設定。
type SimSetting struct {
	Trials     int     `yaml:"trials"      json:"trials"`      // 模擬局數（預設 10000）
	Workers    int     `yaml:"workers"     json:"workers"`     // 併發 worker 數（預設 1）
	Stake      float64 `yaml:"stake"       json:"stake"`       // 每局注金（預設 3.50）
	ScoreStars bool    `yaml:"score_stars" json:"score_stars"` // 星號是否參與評分（預設 true）
	KeepRows   bool    `yaml:"keep_rows"   json:"keep_rows"`   // 是否保留逐局結果列
}

// Default 回傳與原始分析流程一致的預設設定。
func Default() *LabSetting {
	ls := &LabSetting{LabName: "default"}
	ls.Sim.ScoreStars = true
	ls.fill()
	return ls
}

// init 填入預設值後執行基本檢查。由 config registry 在解碼後呼叫。
func (ls *LabSetting) init() error {
	ls.fill()
	return ls.valid()
}

// fill 零值欄位補上預設值。
//
// bool 零值無法與「明確設 false」區分，因此 ScoreStars 的預設由
// YAML/JSON 缺欄位時的 registry decode 處理（見 config_registry.go）。
func (ls *LabSetting) fill() {
	s := &ls.Score
	if s.Window == 0 {
		s.Window = 7
	}
	if s.Alpha == 0 && s.Beta == 0 {
		s.Alpha, s.Beta = 0.5, 0.5
	}
	if s.WRecur == 0 && s.WGap == 0 && s.WMove == 0 {
		s.WRecur, s.WGap, s.WMove = 0.4, 0.3, 0.3
	}

	c := &ls.Constraint
	if c.SumMin == 0 && c.SumMax == 0 {
		c.SumMin, c.SumMax = 90, 150
	}
	if c.ZoneMax == 0 {
		c.ZoneMax = 2
	}
	if c.FocusZone == 0 {
		c.FocusZone = 3
	}
	if c.FocusZoneMin == 0 {
		c.FocusZoneMin = 1
	}
	if c.EvenMin == 0 && c.EvenMax == 0 {
		c.EvenMin, c.EvenMax = 1, 4
	}
	if c.SacredNumber == 0 {
		c.SacredNumber = 13
	}
	if c.MaxOffsets == 0 {
		c.MaxOffsets = 40
	}

	if len(ls.Profiles) == 0 {
		ls.Profiles = []string{"heuristic", "random"}
	}

	m := &ls.Sim
	if m.Trials == 0 {
		m.Trials = 10000
	}
	if m.Workers == 0 {
		m.Workers = 1
	}
	if m.Stake == 0 {
		m.Stake = 3.50
	}
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (ls *LabSetting) valid() error {
	s := ls.Score
	if s.Window < 1 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: window must >= 1", ls.LabName))
	}
	if s.Alpha < 0 || s.Beta < 0 || s.Alpha+s.Beta == 0 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid alpha/beta", ls.LabName))
	}
	if s.WRecur < 0 || s.WGap < 0 || s.WMove < 0 || s.WRecur+s.WGap+s.WMove == 0 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid combined weights", ls.LabName))
	}

	c := ls.Constraint
	minPossible := 1 + 2 + 3 + 4 + 5                                          // 最小可能總和
	maxPossible := BallMax + (BallMax - 1) + (BallMax - 2) + (BallMax - 3) + (BallMax - 4) // 最大可能總和
	if c.SumMin > c.SumMax || c.SumMin < minPossible || c.SumMax > maxPossible {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid sum bounds [%d,%d]", ls.LabName, c.SumMin, c.SumMax))
	}
	if c.ZoneMax < 1 || c.ZoneMax > NumBalls {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid zone_max %d", ls.LabName, c.ZoneMax))
	}
	if c.FocusZone < 1 || c.FocusZone > NumZones {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid focus_zone %d", ls.LabName, c.FocusZone))
	}
	if c.FocusZoneMin < 0 || c.FocusZoneMin > c.ZoneMax {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid focus_min %d", ls.LabName, c.FocusZoneMin))
	}
	if c.EvenMin < 0 || c.EvenMax > NumBalls || c.EvenMin > c.EvenMax {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: invalid even bounds [%d,%d]", ls.LabName, c.EvenMin, c.EvenMax))
	}
	if !ValidBall(c.SacredNumber) {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: sacred number %d out of range", ls.LabName, c.SacredNumber))
	}
	if c.MaxOffsets < 1 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: max_offsets must >= 1", ls.LabName))
	}
	if c.UniqueWindow < 0 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: unique_window must >= 0", ls.LabName))
	}

	m := ls.Sim
	if m.Trials < 1 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: trials must >= 1", ls.LabName))
	}
	if m.Workers < 1 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: workers must >= 1", ls.LabName))
	}
	if m.Stake <= 0 {
		return errs.NewFatal(fmt.Sprintf("lab: %s err: stake must > 0", ls.LabName))
	}
	return nil
}
