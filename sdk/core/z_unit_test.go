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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.UintN(10) != c2.UintN(10) {
		t.Fatalf("UintN mismatch")
	}
}

func TestCorePickAndShuffle(t *testing.T) {
	c := New(Default().New(9))
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}

	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	if len(src) != 4 {
		t.Fatalf("unexpected length after shuffle")
	}
	want := []int{1, 2, 3, 4}
	got := slices.Clone(src)
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}

func TestCoreSampleDistinct(t *testing.T) {
	c := New(Default().New(11))

	got := c.SampleDistinct(1, 50, 5, nil)
	if len(got) != 5 {
		t.Fatalf("want 5 samples, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, v := range got {
		if v < 1 || v > 50 {
			t.Fatalf("sample %d out of range", v)
		}
		if seen[v] {
			t.Fatalf("duplicate sample %d", v)
		}
		seen[v] = true
	}

	// k 大於域大小：回傳 nil
	if got := c.SampleDistinct(1, 3, 4, nil); got != nil {
		t.Fatalf("oversized k should return nil, got %v", got)
	}

	// 抽滿整個域 = 一次重排
	all := c.SampleDistinct(1, 12, 12, nil)
	sorted := slices.Clone(all)
	slices.Sort(sorted)
	for i, v := range sorted {
		if v != i+1 {
			t.Fatalf("full-domain sample broken: %v", all)
		}
	}
}

func TestExpFloat64(t *testing.T) {
	c1 := New(Default().New(21))
	c2 := New(Default().New(21))
	for i := 0; i < 100; i++ {
		v1 := c1.ExpFloat64()
		v2 := c2.ExpFloat64()
		if v1 != v2 {
			t.Fatalf("ExpFloat64 not deterministic at %d", i)
		}
		if v1 < 0 {
			t.Fatalf("ExpFloat64 returned negative value %v", v1)
		}
	}
}

func TestPCG32SnapshotRestore(t *testing.T) {
	p := newPCG32WithSeed(99)
	snap, err := p.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	a := p.Uint64()

	if err := p.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b := p.Uint64(); a != b {
		t.Fatalf("restore did not rewind stream: %d != %d", a, b)
	}

	if err := p.Restore([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for malformed snapshot")
	}
}

func TestSnapshotRestore(t *testing.T) {
	p := Default().New(42)
	snap, err := p.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	a := p.Uint64()

	if err := p.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	b := p.Uint64()
	if a != b {
		t.Fatalf("restore did not rewind stream: %d != %d", a, b)
	}
}
