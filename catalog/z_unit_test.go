package catalog_test

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lotolab/catalog"
	"github.com/zintix-labs/lotolab/spec"
)

const drawsCSV = `draw,date,b1,b2,b3,b4,b5,e1,e2
1,2024-01-02,5,12,23,34,45,3,9
2,2024-01-05,1,14,22,37,48,2,11
3,2024-01-09,7,16,25,31,44,5,8
`

const labYAML = `lab_name: euro-test
dataset_id: 7
draws_file: euro.csv
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"euro.yaml": &fstest.MapFile{Data: []byte(labYAML)},
		"euro.csv":  &fstest.MapFile{Data: []byte(drawsCSV)},
	}
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(testFS())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRegisterAndLookup(t *testing.T) {
	c := newCatalog(t)
	err := c.Register(catalog.Entry{ID: 7, Name: "  Euro-Test  ", ConfigName: "euro.yaml", DrawsName: "euro.csv"})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.GetByID(7); !ok {
		t.Fatal("GetByID(7) should hit")
	}
	// 名稱查詢不分大小寫、去頭尾空白
	if _, ok := c.GetByName("EURO-test"); !ok {
		t.Fatal("GetByName should be case-insensitive")
	}
	if _, ok := c.GetByID(8); ok {
		t.Fatal("GetByID(8) should miss")
	}

	ids := c.IDs()
	if len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("ids = %v", ids)
	}
	all := c.All()
	if len(all) != 1 || all[0].ID != 7 {
		t.Fatalf("all = %v", all)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c := newCatalog(t)
	e := catalog.Entry{ID: 1, Name: "euro", ConfigName: "euro.yaml", DrawsName: "euro.csv"}
	if err := c.Register(e); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(e); err == nil {
		t.Fatal("duplicate id should be rejected")
	}
	// 同一批內重複也要整批失敗
	c2 := newCatalog(t)
	if err := c2.Register(e, e); err == nil {
		t.Fatal("duplicate inside one batch should be rejected")
	}
	if len(c2.IDs()) != 0 {
		t.Fatal("failed batch must not partially register")
	}
}

func TestRegisterRejectsBadEntries(t *testing.T) {
	c := newCatalog(t)
	cases := []catalog.Entry{
		{ID: 1, Name: "", ConfigName: "euro.yaml", DrawsName: "euro.csv"},         // 名稱空白
		{ID: 1, Name: "x", ConfigName: "euro.txt", DrawsName: "euro.csv"},         // 副檔名不符
		{ID: 1, Name: "x", ConfigName: "sub/euro.yaml", DrawsName: "euro.csv"},    // 不可含路徑
		{ID: 1, Name: "x", ConfigName: ".yaml", DrawsName: "euro.csv"},            // 不可以 . 開頭
		{ID: 1, Name: "x", ConfigName: "missing.yaml", DrawsName: "euro.csv"},     // 設定檔不存在
		{ID: 1, Name: "x", ConfigName: "euro.yaml", DrawsName: "missing.csv"},     // 開獎檔不存在
	}
	for i, e := range cases {
		if err := c.Register(e); err == nil {
			t.Fatalf("case %d: entry %+v should be rejected", i, e)
		}
	}
}

func TestFreezeBlocksRegister(t *testing.T) {
	c := newCatalog(t)
	c.Freeze()
	if !c.IsFrozen() {
		t.Fatal("IsFrozen should report true")
	}
	err := c.Register(catalog.Entry{ID: 1, Name: "euro", ConfigName: "euro.yaml", DrawsName: "euro.csv"})
	if err == nil {
		t.Fatal("register after freeze should fail")
	}
}

func TestLabSettingById(t *testing.T) {
	c := newCatalog(t)
	if err := c.Register(catalog.Entry{ID: 7, Name: "euro", ConfigName: "euro.yaml", DrawsName: "euro.csv"}); err != nil {
		t.Fatal(err)
	}

	set, err := c.LabSettingById(7)
	if err != nil {
		t.Fatal(err)
	}
	if set.LabName != "euro-test" || set.DatasetID != 7 {
		t.Fatalf("setting = %+v", set)
	}
	// 缺欄位要補預設值
	if set.Score.Window != 7 || set.Sim.Trials != 10000 || !set.Sim.ScoreStars {
		t.Fatalf("defaults not filled: %+v", set)
	}

	if _, err := c.LabSettingById(99); err == nil {
		t.Fatal("unknown id should fail")
	}
	if _, err := c.LabSettingByName("euro"); err != nil {
		t.Fatal(err)
	}
}

func TestHistoryById(t *testing.T) {
	c := newCatalog(t)
	if err := c.Register(catalog.Entry{ID: 7, Name: "euro", ConfigName: "euro.yaml", DrawsName: "euro.csv"}); err != nil {
		t.Fatal(err)
	}

	h, report, err := c.HistoryById(7)
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 3 || report.Kept != 3 || report.Total != 3 {
		t.Fatalf("history len=%d report=%+v", h.Len(), report)
	}
	if _, _, err := c.HistoryById(99); err == nil {
		t.Fatal("unknown id should fail")
	}
}

func TestNewRejectsBadFS(t *testing.T) {
	if _, err := catalog.New(); err == nil {
		t.Fatal("no fs should be rejected")
	}
	if _, err := catalog.New(nil); err == nil {
		t.Fatal("nil fs should be rejected")
	}

	nested := fstest.MapFS{
		"sub/euro.yaml": &fstest.MapFile{Data: []byte(labYAML)},
	}
	if _, err := catalog.New(nested); err == nil {
		t.Fatal("nested data fs should be rejected")
	}

	// 跨來源同名檔案直接拒絕
	if _, err := catalog.New(testFS(), testFS()); err == nil {
		t.Fatal("duplicate file across sources should be rejected")
	}
}

func TestRegisterChecksDatasetIDZero(t *testing.T) {
	c := newCatalog(t)
	// id 0 未被 catalog 禁止，但查無此號時要得到明確錯誤
	var id spec.DatasetID = 42
	if _, err := c.LabSettingById(id); err == nil {
		t.Fatal("lookup in empty catalog should fail")
	}
}
