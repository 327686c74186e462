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

package sampler

import "github.com/zintix-labs/lotolab/sdk/core"

// Shuffle 對 src 做均勻（無權重）就地重排，委派 Core 的 Fisher-Yates 實作。
// 與 WeightedShuffle 對齊的函數式入口，方便在同一呼叫點切換有權/無權版本。
func Shuffle(c *core.Core, src []int) {
	c.ShuffleInts(src)
}
