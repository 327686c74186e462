// Package dev 提供 Lotolab 的「內部 Dev Panel」HTTP endpoints。
//
// 目的（ explain the why ）：
//   - 給分析者 / 後端在開發期快速驗證：指定資料集、Profile、Seed / Snap，然後執行 Pick 或 Sim。
//   - 支援可回放（replay）：把 Snapshot（Snap）以字串形式在前端顯示，並可貼回後端做 Restore。
//
// 注意（ contract ）：
//   - 這不是 production API；它偏向 debug / tooling，行為允許更寬鬆，但仍需維持 deterministic concludes。
//   - 這裡的錯誤處理走 `httperr.Errs`（以 errs.Warn/errs.Fatal 對應 HTTP response）。
//   - Seed/Snap 的互斥與優先級由前端 + 後端共同保證（Snap takes precedence）。
package dev

import (
	"crypto/rand"
	"embed"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/lotolab"
	"github.com/zintix-labs/lotolab/catalog"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/server/httperr"
	"github.com/zintix-labs/lotolab/server/netsvr"
	"github.com/zintix-labs/lotolab/server/svrcfg"
	"github.com/zintix-labs/lotolab/spec"
)

// devRequest 是 Dev Panel 的「輸入 payload」。
//
// 兼容性（backward compatibility）：
//   - 同時保留 `count` 與 `trials`：Pick 用 count，Sim 用 trials；後端會做合併。
//   - `id` 與 `lab` 兩者擇一即可；若兩者同時存在，後端會優先使用 id 做解析。
//
// Seed / Snap：
//   - Seed（int64 string）用於 deterministic 起始；若為空字串則自動生成（crypto/rand）。
//   - Snap（base64url string）代表 core snapshot；若提供 Snap，則後端以 Snap Restore 為準（Snap precedence）。
//
// 注意：
//   - 這個 struct 是 API 邊界用的 DTO；不要把它滲透到選號/統計 domain。
type devRequest struct {
	ID      int64  `json:"id"`
	Lab     string `json:"lab"`
	Profile string `json:"profile"`
	Count   int    `json:"count"`
	Trials  int    `json:"trials"`
	Seed    string `json:"seed"`
	Snap    string `json:"snap"`
}

// n() 將 count/trials 做兼容合併：優先 count，其次 trials；若都未提供則回 0。
func (r devRequest) n() int {
	if r.Count > 0 {
		return r.Count
	}
	if r.Trials > 0 {
		return r.Trials
	}
	return 0
}

// Register 註冊 Dev Panel 的 routes。
//
// Routes：
//   - GET  /dev       ：Dev Panel HTML（內嵌 JS）。
//   - GET  /dev/meta  ：回傳 Catalog summary（供前端下拉選單：Lab / Profile）。
//   - POST /dev/pick  ：執行 N 次產號並回傳每組結果（含 start_b64u/after_b64u）。
//   - POST /dev/sim   ：執行 N 局回測並回傳統計報表（不回傳逐局 results）。
//
// 依賴（dependency）：
//   - 需要 cfg.Lab 已被上層組裝完成並注入；否則會回 errs.Fatal。
func Register(svr netsvr.NetRouter, cfg *svrcfg.SvrCfg) {
	svr.Get("/dev", devPage)
	svr.Get("/favicon.svg", favicon)
	svr.Get("/dev/meta", devMeta(cfg))
	svr.Post("/dev/pick", devPick(cfg))
	svr.Post("/dev/sim", devSim(cfg))
}

// devPageHTML 是內嵌的 Dev Panel UI。
//
// UI 行為（contract）：
//   - Lab：由 /dev/meta 動態載入。
//   - Seed/Snap 互斥：
//   - Snap 非空 → Seed 會被清空並 disable。
//   - Seed 非空 → Snap 會被清空並 disable。
//   - Snap takes precedence（後端也會以 Snap 為準）。
//   - Count/Trials：
//   - Pick：前端會 cap 在 5,000 以避免回傳 payload 過大。
//   - Sim ：前端會 cap 在 3,000,000 以避免長時間阻塞（仍屬 dev tooling）。
//
// 回傳呈現：
//   - Pick：Summary 區顯示整體資訊；Picks 展開後可點選查看 raw PickDTO JSON。
//   - Sim ：僅顯示統計（statistic），不顯示逐局 results。
const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>Lotolab Dev</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 980px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; box-shadow:0 12px 50px rgba(0,0,0,0.35); }
    h1 { margin: 0 0 16px; font-size: 22px; letter-spacing: 0.3px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(180px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input, select { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    input:focus, select:focus { outline:1px solid #38bdf8; border-color:#38bdf8; }
    .actions { position:relative; display:flex; gap:10px; align-items:center; justify-content:flex-end; margin: 8px 0 14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; letter-spacing:0.2px; }
    #btn-pick { background:#38bdf8; color:#0b1224; }
    #btn-sim { background:#22c55e; color:#0b1224; }
    #btn-clear { background:#1f2937; color:#e2e8f0; border:1px solid #334155; }
    button:disabled { opacity:0.6; cursor:not-allowed; }
    input:disabled, select:disabled { opacity: 0.55; cursor: not-allowed; filter: grayscale(0.25); }
    .info { position:absolute; left:50%; transform:translateX(-50%); font-size:13px; color:#94a3b8; }
    .info.warn { color:#f87171; font-weight:600; }
    #summary { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:120px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre-wrap; margin-bottom:12px; }
    #picksBox { border:1px solid #1f2737; border-radius:12px; padding:10px; background:#0b1224; margin-bottom:12px; max-height: calc(60vh - 56px); overflow:auto; }
    #pickList { max-height: calc(60vh - 136px); overflow:auto; }
    .pick-item { display:grid; grid-template-columns: minmax(3.5em, max-content) max-content max-content max-content; align-items:center; column-gap:12px; width:100%; text-align:left; background:none; border:none; padding:6px 10px; color:#e2e8f0; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; cursor:pointer; border-left: 4px solid transparent; }
    .pick-item:hover { background:#1f2937; border-left-color:#38bdf8; }
    .pick-item.selected { background:#2563eb; border-left-color:#60a5fa; }
    .pick-index { color:#94a3b8; text-align:right; justify-self:end; min-width:3.5em; font-variant-numeric: tabular-nums; }
    .pick-stars { color:#facc15; }
    .fb-true { color:#f87171; font-weight:600; }
    #detail { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:120px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre-wrap; display:none; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>Lotolab Dev Panel</h1>
    <div class="grid">
      <label>Lab
        <select id="lab"></select>
      </label>
      <label>Profile
        <select id="profile"></select>
      </label>
      <label>Seed (int64)
        <input id="seed" type="text" inputmode="numeric" placeholder="Empty = auto" />
      </label>
      <label>Snap (base64url)
        <input id="snap" type="text" placeholder="Paste snap (base64url)" />
      </label>
      <label>Count / Trials
        <input id="n" type="number" min="1" max="3000000" value="1" />
      </label>
    </div>
    <div class="actions">
      <button id="btn-pick">Pick</button>
      <button id="btn-sim">Sim</button>
      <button id="btn-clear">Clear</button>
      <span class="info" id="info"></span>
    </div>

    <pre id="summary"></pre>

    <details id="picksBox" style="display:none;">
      <summary>Picks</summary>
      <div id="pickList"></div>
    </details>

    <pre id="detail" style="display:none;"></pre>
  </div>
<script>
const state = { meta: null, picks: [] };
const labSel = document.getElementById('lab');
const profileSel = document.getElementById('profile');
const seedInput = document.getElementById('seed');
const snapInput = document.getElementById('snap');
const nInput = document.getElementById('n');
const summary = document.getElementById('summary');
const picksBox = document.getElementById('picksBox');
const pickList = document.getElementById('pickList');
const detail = document.getElementById('detail');
const infoEl = document.getElementById('info');
const btnPick = document.getElementById('btn-pick');
const btnSim = document.getElementById('btn-sim');
const btnClear = document.getElementById('btn-clear');

function syncInputLocks() {
  const hasSnap = snapInput.value.trim() !== '';
  const hasSeed = seedInput.value.trim() !== '';
  seedInput.disabled = hasSnap;
  snapInput.disabled = hasSeed;
}
seedInput.addEventListener('input', syncInputLocks);
snapInput.addEventListener('input', syncInputLocks);

function setInfo(text, isWarn) {
  infoEl.textContent = text || '';
  infoEl.className = 'info' + (isWarn ? ' warn' : '');
}
function setLoading(isLoading) {
  btnPick.disabled = isLoading;
  btnSim.disabled = isLoading;
}
function clearSelection() {
  state.picks = [];
  pickList.innerHTML = '';
  picksBox.style.display = 'none';
  detail.style.display = 'none';
}

function selectedLab() {
  if (!state.meta) return null;
  const id = Number(labSel.value);
  return state.meta.find((s) => Number(s.id) === id) || null;
}

function refreshProfiles() {
  const lab = selectedLab();
  profileSel.innerHTML = '';
  const profiles = (lab && Array.isArray(lab.profiles) && lab.profiles.length) ? lab.profiles : ['heuristic', 'random'];
  profiles.forEach((p) => {
    const opt = document.createElement('option');
    opt.value = p;
    opt.textContent = p;
    profileSel.appendChild(opt);
  });
}

async function loadMeta() {
  try {
    const res = await fetch('/dev/meta');
    if (!res.ok) throw new Error(await res.text());
    state.meta = await res.json();
    labSel.innerHTML = '';
    state.meta.forEach((s) => {
      const opt = document.createElement('option');
      opt.value = s.id;
      opt.textContent = s.name + ' (draws: ' + s.draws + ')';
      labSel.appendChild(opt);
    });
    refreshProfiles();
  } catch (err) {
    setInfo('meta load failed: ' + err.message, true);
  }
}
labSel.addEventListener('change', refreshProfiles);

function payload(n) {
  const p = {
    id: Number(labSel.value),
    profile: profileSel.value,
    count: n,
    trials: n,
  };
  const lab = selectedLab();
  if (lab && lab.name) p.lab = lab.name;
  const snap = snapInput.value.trim();
  const seed = seedInput.value.trim();
  if (snap) { p.snap = snap; } else if (seed) { p.seed = seed; }
  return p;
}

function renderDetail(index) {
  if (!state.picks || !state.picks[index]) {
    detail.textContent = '';
    detail.style.display = 'none';
    return;
  }
  detail.textContent = JSON.stringify(state.picks[index], null, 2);
  detail.style.display = 'block';
  const buttons = pickList.querySelectorAll('.pick-item');
  buttons.forEach((btn, idx) => btn.classList.toggle('selected', idx === index));
}

async function runPick() {
  setLoading(true);
  clearSelection();
  const inputN = Number(nInput.value) || 1;
  const safeN = Math.min(inputN, 5000);
  try {
    const res = await fetch('/dev/pick', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload(safeN)),
    });
    if (!res.ok) throw new Error(await res.text());
    const data = await res.json();

    const summaryObj = { ...data };
    delete summaryObj.picks;
    summary.textContent = JSON.stringify(summaryObj, null, 2);
    setInfo(inputN > 5000 ? 'Pick records are capped at 5,000.' : '', inputN > 5000);

    const picks = Array.isArray(data.picks) ? data.picks : [];
    if (picks.length > 0) {
      state.picks = picks;
      picks.forEach((pick, idx) => {
        const btn = document.createElement('button');
        btn.type = 'button';
        btn.className = 'pick-item';
        const idxSpan = document.createElement('span');
        idxSpan.className = 'pick-index';
        idxSpan.textContent = '#' + (idx + 1);
        const ballsSpan = document.createElement('span');
        ballsSpan.textContent = (pick.balls || []).join(' ');
        const starsSpan = document.createElement('span');
        starsSpan.className = 'pick-stars';
        starsSpan.textContent = '* ' + (pick.stars || []).join(' ');
        const fbSpan = document.createElement('span');
        if (pick.fallback) { fbSpan.textContent = 'fallback'; fbSpan.className = 'fb-true'; }
        btn.append(idxSpan, ballsSpan, starsSpan, fbSpan);
        btn.addEventListener('click', () => renderDetail(idx));
        pickList.appendChild(btn);
      });
      picksBox.style.display = 'block';
    }
  } catch (err) {
    summary.textContent = 'error: ' + err.message;
  } finally {
    setLoading(false);
  }
}

async function runSim() {
  setLoading(true);
  clearSelection();
  const inputN = Number(nInput.value) || 1;
  const safeN = Math.min(inputN, 3000000);
  try {
    const res = await fetch('/dev/sim', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload(safeN)),
    });
    if (!res.ok) throw new Error(await res.text());
    const data = await res.json();
    summary.textContent = JSON.stringify(data, null, 2);
    setInfo('', false);
  } catch (err) {
    summary.textContent = 'error: ' + err.message;
  } finally {
    setLoading(false);
  }
}

btnPick.addEventListener('click', runPick);
btnSim.addEventListener('click', runSim);
btnClear.addEventListener('click', () => { summary.textContent = ''; clearSelection(); setInfo('', false); });

syncInputLocks();
loadMeta();
</script>
</body>
</html>`

// devPage 回傳內嵌 HTML（single page）。這裡不做 templating，降低 dev tool 維護成本。
func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

// favicon 提供 Dev Panel 的 favicon.svg。
func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}

// devMeta 回傳 Catalog summary（JSON）。
//
// 前端依賴欄位：
//   - id
//   - name
//   - profiles
func devMeta(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lab, ok := getLab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("lab is required"))
			return
		}
		sum, err := lab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}

// devPick 執行「可回放」的產號。
//
// 流程（high level）：
//  1. decode devRequest（JSON body）
//  2. resolve lab（id/name）→ catalog.Summary
//  3. resolve seed（empty = auto）
//  4. 建立 DevSimulator → Picks() 或 RestorePicks()
//
// Snap precedence：若 snap 非空，會走 RestorePicks(snap, ...)。
func devPick(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		lab, ok := getLab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("lab is required"))
			return
		}
		sum, err := resolveSummary(lab, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		n := req.n()
		if n < 1 {
			httperr.Errs(w, errs.NewWarn("count is required"))
			return
		}
		snap := strings.TrimSpace(req.Snap)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		sim, err := lab.NewDevSimulator(sum.ID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report lotolab.DevPickReport
		if snap != "" {
			report, err = sim.RestorePicks(snap, req.Profile, n)
		} else {
			report, err = sim.Picks(req.Profile, n)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// devSim 執行統計模擬（simulation）。
//
// 和 devPick 的差異：
//   - devSim 不回逐組 picks（降低 response size），僅回 DevSimReport（statistic）。
//   - 若提供 snap，會走 RestoreSim(snap, ...)。
func devSim(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		lab, ok := getLab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("lab is required"))
			return
		}
		sum, err := resolveSummary(lab, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		n := req.n()
		if n < 1 {
			httperr.Errs(w, errs.NewWarn("trials is required"))
			return
		}
		snap := strings.TrimSpace(req.Snap)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		sim, err := lab.NewDevSimulator(sum.ID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report lotolab.DevSimReport
		if snap != "" {
			report, err = sim.RestoreSim(snap, req.Profile, n)
		} else {
			report, err = sim.Sim(req.Profile, n)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// getLab 從 server config 取得已組裝的 Lab instance。
// Dev routes 不負責組裝（assembler），只負責使用（runtime entry）。
func getLab(cfg *svrcfg.SvrCfg) (*lotolab.Lab, bool) {
	if cfg == nil || cfg.Lab == nil {
		return nil, false
	}
	return cfg.Lab, true
}

// resolveSummary 解析使用者指定的資料集：
//   - 若 id > 0：以 id 精準匹配（fast path）。
//   - 否則若 lab(name) 非空：先做 case-insensitive name 匹配；也允許把 lab 當作數字字串解析成 id。
//
// 回傳 catalog.Summary 作為後續操作的依據。
func resolveSummary(lab *lotolab.Lab, req *devRequest) (catalog.Summary, error) {
	sums, err := lab.Summary()
	if err != nil {
		return catalog.Summary{}, err
	}
	if req.ID > 0 {
		id := spec.DatasetID(req.ID)
		for _, s := range sums {
			if s.ID == id {
				return s, nil
			}
		}
		return catalog.Summary{}, errs.NewWarn("id not found")
	}
	name := strings.TrimSpace(req.Lab)
	if name != "" {
		for _, s := range sums {
			if strings.EqualFold(s.Name, name) {
				return s, nil
			}
		}
		if id, err := strconv.ParseUint(name, 10, 64); err == nil {
			sid := spec.DatasetID(id)
			for _, s := range sums {
				if s.ID == sid {
					return s, nil
				}
			}
		}
		return catalog.Summary{}, errs.NewWarn("lab not found")
	}
	return catalog.Summary{}, errs.NewWarn("lab is required")
}

// resolveSeed 解析 seed（int64 string）。
//   - 空字串：自動生成 seed（crypto/rand），方便快速測試。
//   - 非空：必須為合法 int64。
func resolveSeed(seed string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return randomSeed()
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.NewWarn("seed must be int64")
	}
	return v, nil
}

// randomSeed 使用 crypto/rand 產生 [0, MaxInt64) 的種子。
// 目的：避免 math/rand 的 deterministic 來源造成 seed 品質偏差（dev tool 也要可依賴）。
func randomSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}

//go:embed favicon.svg
var faviconSVG string

// keep embed imported even if only used for directives
var _ embed.FS
