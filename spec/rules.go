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

// Package spec 定義 Lotolab 的遊戲規則常數、獎級表與 LabSetting 設定結構。
//
// 規則常數描述的是 EuroMillions 式的抽球遊戲本體（5 顆主球 + 2 顆星號球），
// 屬於遊戲的「物理事實」，不可由設定檔覆寫；可調的啟發式參數一律放在 LabSetting。
package spec

// DatasetID 資料集編號（catalog 內唯一）
type DatasetID uint

// 抽球規則（固定，不開放設定）
const (
	NumBalls = 5  // 每次開獎的主球數
	BallMin  = 1  // 主球最小號
	BallMax  = 50 // 主球最大號
	NumStars = 2  // 每次開獎的星號球數
	StarMin  = 1  // 星號球最小號
	StarMax  = 12 // 星號球最大號
)

// 號碼分區（zone）：把 [1,50] 切成五個連續的十位區
const (
	NumZones = 5
	ZoneSpan = 10
)

// ZoneOf 回傳號碼所屬分區（1..5）；號碼超出範圍回傳 0。
func ZoneOf(n int) int {
	if n < BallMin || n > BallMax {
		return 0
	}
	return (n-1)/ZoneSpan + 1
}

// ValidBall 回傳是否為合法主球號碼。
func ValidBall(n int) bool { return n >= BallMin && n <= BallMax }

// ValidStar 回傳是否為合法星號球號碼。
func ValidStar(n int) bool { return n >= StarMin && n <= StarMax }
