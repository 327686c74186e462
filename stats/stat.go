package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/lotolab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// BacktestReport 回測統計報告
type BacktestReport struct {
	Summary *SummaryReport `json:"Summary"`
	Ranks   *RankReport    `json:"Ranks"`
	isDone  bool
}

type SummaryReport struct {
	LabName      string  `json:"LabName"`
	Profile      string  `json:"Profile"`
	Trials       int     `json:"Trials"`
	Stake        float64 `json:"Stake"`
	TotalStake   float64 `json:"TotalStake"`
	TotalPayout  float64 `json:"TotalPayout"`
	PayoutSqSum  float64 `json:"PayoutSqSum"` // 平方和
	Wins         int     `json:"Wins"`
	Fallbacks    int     `json:"Fallbacks"`
	ROI          float64 `json:"ROI"`
	RoiCI        CI      `json:"RoiCI"`
	Std          float64 `json:"Std"`
	WinRate      float64 `json:"WinRate"`
	TheoWinRate  float64 `json:"TheoWinRate"`
	FallbackRate float64 `json:"FallbackRate"`
}

// RankReport 各獎級落點統計
//
// 紀錄時只累計次數，避免換算成本。紀錄完成後Done()會將期望值與比值整理填入
type RankReport struct {
	Rank     []int     `json:"Rank"`
	Match    []string  `json:"Match"`
	Count    []int     `json:"Count"`
	Expected []float64 `json:"Expected"`
	Ratio    []float64 `json:"Ratio"`
	NoWin    int       `json:"NoWin"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 回測過程因為性能原因只累計原始加總，所以統計完成後
//
// 請使用 Done 來通知報表統計已經完成，可以一次性計算統計結果
func (s *BacktestReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.ROI = s.Roi()
	s.Summary.RoiCI = s.Ci()
	s.Summary.Std = s.Std()
	if s.Summary.Trials > 0 {
		s.Summary.WinRate = float64(s.Summary.Wins) / float64(s.Summary.Trials)
		s.Summary.FallbackRate = float64(s.Summary.Fallbacks) / float64(s.Summary.Trials)
	}
	s.Summary.TheoWinRate = spec.WinProbability()

	// Ranks
	n := float64(s.Summary.Trials)
	for i := range s.Ranks.Rank {
		p := spec.ProbabilityForRank(s.Ranks.Rank[i])
		s.Ranks.Expected[i] = n * p
		if s.Ranks.Expected[i] > 0 {
			s.Ranks.Ratio[i] = float64(s.Ranks.Count[i]) / s.Ranks.Expected[i]
		}
	}

	s.isDone = true
}

// Roi 回傳整體 ROI 百分比（(總獎金-總成本)/總成本 x 100）
func (s *BacktestReport) Roi() float64 {
	if s.Summary.TotalStake <= 0 {
		return 0
	}
	return (s.Summary.TotalPayout - s.Summary.TotalStake) / s.Summary.TotalStake * 100.0
}

// Std 回傳單局獎金的標準差
func (s *BacktestReport) Std() float64 {
	if s.Summary.Trials < 2 {
		return 0
	}
	n := float64(s.Summary.Trials)

	payPow := s.Summary.TotalPayout * s.Summary.TotalPayout
	variance := (s.Summary.PayoutSqSum - payPow/n) / (n - 1)

	if variance < 0 {
		variance = 0
	}

	std := math.Sqrt(variance)
	return std
}

// Ci 回傳(95% ROI)信賴區間，單位為百分比
func (s *BacktestReport) Ci() CI {
	roi := s.Roi()
	if s.Summary.Trials < 2 || s.Summary.Stake <= 0 {
		return CI{Lo: roi, Hi: roi}
	}
	// 單局獎金標準差換算成 ROI 百分比的標準誤
	se := s.Std() / math.Sqrt(float64(s.Summary.Trials)) / s.Summary.Stake * 100.0
	ci := CI{
		Lo: roi - 1.96*se,
		Hi: roi + 1.96*se,
	}
	return ci
}

func (s *BacktestReport) WriteWith(w io.Writer, rep BacktestReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *BacktestReport) StdOut(ut time.Duration) {
	formatDuration(ut, s.Summary.Trials)
	sk, sm := s.fmtBasic()
	str := fmtTable(s.Summary.LabName, sk, sm)
	fmt.Println(str)
	fmt.Println(s.fmtRanks())
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, trials int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	tps := int(float64(trials) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\ntps : %d trials/sec\n", sec, tps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		s = s % 60
		p.Printf("used: %dm %ds\ntps : %d trials/sec\n", m, s, tps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\ntps : %d trials/sec\n", h, m, s, tps)
}

// StdOut

func (s *BacktestReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Lab Name":      p.Sprintf("%s", s.Summary.LabName),
		"Profile":       p.Sprintf("%s", s.Summary.Profile),
		"Total Trials":  p.Sprintf("%d", s.Summary.Trials),
		"Stake":         p.Sprintf("%.2f", s.Summary.Stake),
		"Total Stake":   p.Sprintf("%.2f", s.Summary.TotalStake),
		"Total Payout":  p.Sprintf("%.2f", s.Summary.TotalPayout),
		"ROI":           p.Sprintf("%.2f %%", s.Summary.ROI),
		"ROI 95% CI":    p.Sprintf("[%.2f%%,%.2f%%]", s.Summary.RoiCI.Lo, s.Summary.RoiCI.Hi),
		"Win Rate":      p.Sprintf("%.4f %%", 100.0*s.Summary.WinRate),
		"Theo Win Rate": p.Sprintf("%.4f %%", 100.0*s.Summary.TheoWinRate),
		"Fallback Rate": p.Sprintf("%.2f %%", 100.0*s.Summary.FallbackRate),
		"STD":           p.Sprintf("%.3f", s.Summary.Std),
	}
	keys := []string{"Lab Name", "Profile", "Total Trials", "Stake", "Total Stake", "Total Payout", "ROI", "ROI 95% CI", "Win Rate", "Theo Win Rate", "Fallback Rate", "STD"}
	return keys, basic
}

func (s *BacktestReport) fmtRanks() string {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Ranks.Rank)+1)
	msg := make(map[string]string, len(s.Ranks.Rank)+1)
	for i, r := range s.Ranks.Rank {
		k := p.Sprintf("Rank %2d (%s)", r, s.Ranks.Match[i])
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d / exp %.2f (x%.2f)", s.Ranks.Count[i], s.Ranks.Expected[i], s.Ranks.Ratio[i])
	}
	keys = append(keys, "No Win")
	msg["No Win"] = p.Sprintf("%d", s.Ranks.NoWin)
	return fmtTable("Prize Ranks", keys, msg)
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
