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

package errs_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zintix-labs/lotolab/errs"
)

func TestLevels(t *testing.T) {
	if errs.NewFatal("x").ErrLv != errs.Fatal {
		t.Fatal("NewFatal level")
	}
	if errs.NewWarn("x").ErrLv != errs.Warn {
		t.Fatal("NewWarn level")
	}
	if errs.NewLog("x").ErrLv != errs.Log {
		t.Fatal("NewLog level")
	}
	if errs.Warnf("n=%d", 7).Message != "n=7" {
		t.Fatal("Warnf formatting")
	}
}

func TestErrorString(t *testing.T) {
	e := errs.NewWithExtra(errs.Warn, "boom", "dataset=1")
	msg := e.Error()
	if !strings.Contains(msg, "warn") || !strings.Contains(msg, "boom") || !strings.Contains(msg, "dataset=1") {
		t.Fatalf("message = %q", msg)
	}
}

func TestWrapKeepsLevel(t *testing.T) {
	inner := errs.NewWarn("inner")
	wrapped := errs.Wrap(inner, "outer")
	if wrapped.ErrLv != errs.Warn {
		t.Fatal("wrap should keep the inner level")
	}
	if !errors.Is(wrapped, inner) {
		t.Fatal("wrapped error should unwrap to cause")
	}

	// 非本包錯誤一律升為 fatal
	plain := fmt.Errorf("plain")
	if errs.Wrap(plain, "outer").ErrLv != errs.Fatal {
		t.Fatal("foreign cause should be fatal")
	}
}

func TestAsErr(t *testing.T) {
	e := errs.NewFatal("x")
	chained := fmt.Errorf("layer: %w", e)
	got, ok := errs.AsErr(chained)
	if !ok || got != e {
		t.Fatal("AsErr should find the wrapped *E")
	}
	if _, ok := errs.AsErr(errors.New("plain")); ok {
		t.Fatal("plain error is not *E")
	}
}
