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

package dto

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodeGenerateRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/generate?lab=euro&id=7&count=3&profile=random", nil)
	req, err := DecodeGenerateRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.LabName != "euro" || req.ID != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Count != 3 || req.Profile != "random" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeGenerateRequestPOST(t *testing.T) {
	payload := map[string]any{
		"lab":   "euro",
		"id":    9,
		"count": 2,
		"start_state": map[string]any{
			"start_b64u": "AAAA",
		},
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(data))
	req, err := DecodeGenerateRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID != 9 || req.Count != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !req.StartState.HasPayload() {
		t.Fatalf("start state lost: %+v", req.StartState)
	}
	if _, err := req.StartState.Snap(); err != nil {
		t.Fatalf("snap decode failed: %v", err)
	}
}

func TestDecodeGenerateRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"id":1,"lab":"euro","count":1,"unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(data))
	if _, err := DecodeGenerateRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestDecodeBacktestRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/backtest?id=3&trials=5000&workers=4&profile=heuristic&seed=42", nil)
	req, err := DecodeBacktestRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID != 3 || req.Trials != 5000 || req.Workers != 4 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Profile != "heuristic" || req.Seed != 42 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeBacktestRequestBadValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/backtest?id=NaN", nil)
	if _, err := DecodeBacktestRequest(r); err == nil {
		t.Fatalf("expected error for invalid id")
	}
	r2 := httptest.NewRequest(http.MethodDelete, "/backtest", nil)
	if _, err := DecodeBacktestRequest(r2); err == nil {
		t.Fatalf("expected method not allowed")
	}
}

func TestStartStateEmpty(t *testing.T) {
	var ss *StartState
	if ss.HasPayload() {
		t.Fatal("nil start state should have no payload")
	}
	snap, err := ss.Snap()
	if err != nil || snap != nil {
		t.Fatalf("nil start state snap should be nil, got %v %v", snap, err)
	}
}
