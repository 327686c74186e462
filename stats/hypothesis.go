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

package stats

import (
	"math"
	"sort"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/spec"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// HypothesisReport 歷史資料檢定報告
//
// 對歷史開獎做三項檢定：號碼分布是否均勻(卡方)、
// 五球總和是否近似常態(KS)、特定號碼出現是否獨立(lag-1 自相關)。
type HypothesisReport struct {
	Uniformity  TestResult `json:"Uniformity"`
	SumsNormal  TestResult `json:"SumsNormal"`
	SacredIndep TestResult `json:"SacredIndep"`
}

// TestResult 單項檢定結果
type TestResult struct {
	Name     string  `json:"Name"`
	Stat     float64 `json:"Stat"`
	PValue   float64 `json:"PValue"`
	Rejected bool    `json:"Rejected"` // alpha = 0.05
}

// ============================================================
// ** 對外 : 檢定 **
// ============================================================

// TestHistory 對歷史開獎執行全部檢定
func TestHistory(h *draws.History, sacred int) *HypothesisReport {
	return &HypothesisReport{
		Uniformity:  ChiSquareUniformity(h),
		SumsNormal:  KSNormalSums(h),
		SacredIndep: SacredAutocorrelation(h, sacred),
	}
}

// ChiSquareUniformity 檢定各球號出現次數是否均勻
//
// H0: 每個號碼出現機率相同。自由度為 BallMax-1。
func ChiSquareUniformity(h *draws.History) TestResult {
	counts := h.BallCounts()
	total := 0
	for n := spec.BallMin; n <= spec.BallMax; n++ {
		total += counts[n]
	}
	r := TestResult{Name: "chi-square uniformity"}
	if total == 0 {
		r.PValue = 1
		return r
	}
	expected := float64(total) / float64(spec.BallMax)
	chi2 := 0.0
	for n := spec.BallMin; n <= spec.BallMax; n++ {
		d := float64(counts[n]) - expected
		chi2 += d * d / expected
	}
	dist := distuv.ChiSquared{K: float64(spec.BallMax - 1)}
	r.Stat = chi2
	r.PValue = dist.Survival(chi2)
	r.Rejected = r.PValue < 0.05
	return r
}

// KSNormalSums 檢定五球總和分布是否近似常態
//
// 以樣本均值/標準差建構常態，做單樣本 KS。p 值用漸近 Kolmogorov 分布，
// 樣本太小(<8)時 p 值僅供參考。
func KSNormalSums(h *draws.History) TestResult {
	sums := h.Sums()
	n := len(sums)
	r := TestResult{Name: "ks normal sums"}
	if n < 2 {
		r.PValue = 1
		return r
	}
	mean, std := stat.MeanStdDev(sums, nil)
	if std <= 0 {
		r.Stat = 1
		r.PValue = 0
		r.Rejected = true
		return r
	}
	norm := distuv.Normal{Mu: mean, Sigma: std}

	cp := make([]float64, n)
	copy(cp, sums)
	sort.Float64s(cp)

	// D = max |F_n(x) - F(x)|，左右極限都要看
	d := 0.0
	for i, x := range cp {
		f := norm.CDF(x)
		lo := f - float64(i)/float64(n)
		hi := float64(i+1)/float64(n) - f
		if lo > d {
			d = lo
		}
		if hi > d {
			d = hi
		}
	}
	r.Stat = d
	r.PValue = ksPValue(d, n)
	r.Rejected = r.PValue < 0.05
	return r
}

// SacredAutocorrelation 檢定特定號碼的出現序列是否獨立
//
// 把每期「是否含該號碼」視為 0/1 序列，計算 lag-1 自相關。
// H0 下近似常態，|r1| > 1.96/sqrt(n) 即拒絕獨立假設。
func SacredAutocorrelation(h *draws.History, sacred int) TestResult {
	n := h.Len()
	r := TestResult{Name: "sacred autocorrelation"}
	if n < 3 {
		r.PValue = 1
		return r
	}
	ind := make([]float64, n)
	for i := 0; i < n; i++ {
		if h.At(i).HasBall(sacred) {
			ind[i] = 1
		}
	}
	mean, std := stat.MeanStdDev(ind, nil)
	if std <= 0 {
		// 每期都含(或都不含)該號碼，序列退化，無從檢定
		r.PValue = 1
		return r
	}
	variance := std * std

	r1 := 0.0
	for i := 0; i < n-1; i++ {
		r1 += (ind[i] - mean) * (ind[i+1] - mean)
	}
	r1 /= float64(n-1) * variance

	z := r1 * math.Sqrt(float64(n))
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	r.Stat = r1
	r.PValue = 2 * norm.Survival(math.Abs(z))
	r.Rejected = math.Abs(r1) > 1.96/math.Sqrt(float64(n))
	return r
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Kolmogorov 漸近分布: P(sqrt(n)*D > x) = 2 * sum (-1)^{k-1} exp(-2 k^2 x^2)
func ksPValue(d float64, n int) float64 {
	x := d * (math.Sqrt(float64(n)) + 0.12 + 0.11/math.Sqrt(float64(n)))
	if x <= 0 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*x*x)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	p := 2 * sum
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
