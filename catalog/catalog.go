package catalog

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/lotolab/draws"
	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate dataset id")
	ErrDupName = errs.NewFatal("duplicate lab name")
)

type Entry struct {
	ID         spec.DatasetID
	Name       string
	ConfigName string // lab setting 檔名 (.yaml/.yml/.json)
	DrawsName  string // 歷史開獎檔名 (.csv)
}

type Summary struct {
	ID       spec.DatasetID `json:"id"`
	Name     string         `json:"name"`
	Draws    int            `json:"draws"`
	Stake    float64        `json:"stake"`
	Profiles []string       `json:"profiles"`
}

type Catalog struct {
	byID   map[spec.DatasetID]Entry
	byName map[string]Entry
	ids    []spec.DatasetID    // 用來穩定排序
	unique map[string]struct{} // 一組 lab，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.DatasetID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.DatasetID, 0, 100),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.DatasetID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for _, meta := range metas {
		meta.Name = strings.TrimSpace(meta.Name)
		meta.Name = strings.ToLower(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("lab name required")
		}
		if err := validFileName(meta.ConfigName, ".yaml", ".yml", ".json"); err != nil {
			return err
		}
		if err := validFileName(meta.DrawsName, ".csv"); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.config.index[meta.DrawsName]; !ok {
			return errs.NewFatal(fmt.Sprintf("draws file not found: %s", meta.DrawsName))
		}
		if _, ok := c.byID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.ID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.ID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.ID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

func (c *Catalog) GetByID(id spec.DatasetID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	m, ok := c.byName[name]
	return m, ok
}

func (c *Catalog) IDs() []spec.DatasetID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.DatasetID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	order := c.IDs()
	m := make([]Entry, 0, len(c.ids))
	for _, id := range order {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func validFileName(file string, exts ...string) error {
	if file == "" {
		return errs.NewFatal("empty catalog filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid catalog filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以允許的副檔名結尾（大小寫不敏感）
	lower := strings.ToLower(file)
	okExt := false
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			okExt = true
			break
		}
	}
	if !okExt {
		return errs.NewFatal(fmt.Sprintf("invalid catalog filename: %q (must end with %s)", file, strings.Join(exts, ", ")))
	}
	// 3) 不能以 . 開頭（防止直接 .yaml / .csv）
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid catalog filename: %q (cannot start with '.')", file))
	}
	return nil
}

func parseLabSettingByExt(filename string, raw []byte) (*spec.LabSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetLabSettingByYAML(raw)
	case ".json":
		return spec.GetLabSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

// LabSettingById
//
// 會讀取 fs.FS 中的 YAML/JSON 設定、填入預設值並執行基本檢查後回傳
func (c *Catalog) LabSettingById(id spec.DatasetID) (*spec.LabSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NewWarn("id dose not exist in catalog")
	}
	return c.readSetting(e)
}

// LabSettingByName
//
// 會讀取fs中的 YAML/JSON 設定、填入預設值並執行基本檢查後回傳
func (c *Catalog) LabSettingByName(name string) (*spec.LabSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewWarn("name dose not exist in catalog")
	}
	return c.readSetting(e)
}

func (c *Catalog) readSetting(e Entry) (*spec.LabSetting, error) {
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.NewWarn("file name dose not exist in catalog")
	}
	raw, err := fs.ReadFile(src, e.ConfigName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog parse file error")
	}
	return parseLabSettingByExt(e.ConfigName, raw)
}

// HistoryById
//
// 會讀取 fs.FS 中的 CSV 歷史開獎並做清洗（壞列丟棄、計數回報）
func (c *Catalog) HistoryById(id spec.DatasetID) (*draws.History, *draws.CleanReport, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, nil, errs.NewWarn("id dose not exist in catalog")
	}
	src, ok := c.config.GetFS(e.DrawsName)
	if !ok {
		return nil, nil, errs.NewWarn("draws file dose not exist in catalog")
	}
	raw, err := fs.ReadFile(src, e.DrawsName)
	if err != nil {
		return nil, nil, errs.Wrap(err, "catalog read draws error")
	}
	return draws.LoadHistoryCSV(bytes.NewReader(raw))
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 256),
	}

	// eager validate: build index and detect duplicates
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 資料來源限定為扁平目錄：只允許根目錄本身
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("data FS must be flat (no subdirectories): %q", path))
			}

			// 索引鍵必須是 basename；任何帶路徑分隔的項目一律拒絕
			if strings.Contains(path, "/") {
				return errs.NewFatal(fmt.Sprintf("data FS must be flat (no subdirectories): %q", path))
			}

			// Only index settings and draws; ignore any other assets that may exist in the FS.
			lower := strings.ToLower(path)
			if !(strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".csv")) {
				return nil
			}

			name := path // flat FS guarantees path is a basename

			if prev, ok := m.index[name]; ok {
				// duplicate across FS: fail fast
				return errs.NewFatal(fmt.Sprintf("duplicate file %q in fs[%d] and fs[%d]", name, prev, i))
			}
			m.index[name] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Sources exposes data FS sources for read-only iteration.
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}
