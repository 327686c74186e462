package draws

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/lotolab/errs"
	"github.com/zintix-labs/lotolab/spec"
)

// 欄位名稱（大小寫不敏感）。Draw/Date 可省略；省略 Draw 時依檔案順序補期數。
//
// 開獎檔：Draw,Date,B1..B5,E1,E2
// 彩券檔：同上 + Rank,Payout（Rank 空白或 0 = 未中獎）
const dateLayout = "2006-01-02"

// CleanReport 載入時的清洗統計，對應 validation report。
//
// Dropped* 只記「整列丟棄」：任何一個欄位不合法就丟整列，不做部分修補。
type CleanReport struct {
	Total       int `json:"total"`        // 資料列總數（不含表頭）
	Kept        int `json:"kept"`         // 通過驗證的列數
	DroppedParse int `json:"dropped_parse"` // 欄位缺漏或無法解析
	DroppedRange int `json:"dropped_range"` // 號碼超界或重複
	DroppedDup   int `json:"dropped_dup"`   // 期數重複
}

func (r *CleanReport) String() string {
	return fmt.Sprintf("rows=%d kept=%d dropped(parse=%d range=%d dup=%d)",
		r.Total, r.Kept, r.DroppedParse, r.DroppedRange, r.DroppedDup)
}

type columnIndex struct {
	seq, date   int // -1 = 欄位不存在
	balls       [spec.NumBalls]int
	stars       [spec.NumStars]int
	rank, payout int
}

func indexHeader(header []string) (columnIndex, error) {
	idx := columnIndex{seq: -1, date: -1, rank: -1, payout: -1}
	for i := range idx.balls {
		idx.balls[i] = -1
	}
	for i := range idx.stars {
		idx.stars[i] = -1
	}

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "draw", "seq":
			idx.seq = i
		case "date":
			idx.date = i
		case "b1", "b2", "b3", "b4", "b5":
			n := int(name[len(name)-1] - '0')
			idx.balls[n-1] = i
		case "e1", "e2", "s1", "s2":
			n := int(name[len(name)-1] - '0')
			idx.stars[n-1] = i
		case "rank":
			idx.rank = i
		case "payout", "gain", "gain_chf":
			idx.payout = i
		}
	}
	for i, c := range idx.balls {
		if c < 0 {
			return idx, errs.NewFatal(fmt.Sprintf("csv header missing ball column B%d", i+1))
		}
	}
	for i, c := range idx.stars {
		if c < 0 {
			return idx, errs.NewFatal(fmt.Sprintf("csv header missing star column E%d", i+1))
		}
	}
	return idx, nil
}

func (idx columnIndex) numbers(rec []string) (balls, stars []int, err error) {
	balls = make([]int, spec.NumBalls)
	stars = make([]int, spec.NumStars)
	for i, c := range idx.balls {
		if balls[i], err = strconv.Atoi(strings.TrimSpace(rec[c])); err != nil {
			return nil, nil, err
		}
	}
	for i, c := range idx.stars {
		if stars[i], err = strconv.Atoi(strings.TrimSpace(rec[c])); err != nil {
			return nil, nil, err
		}
	}
	return balls, stars, nil
}

// LoadHistoryCSV 讀取開獎 CSV 並回傳驗證後的 History 與清洗統計。
//
// 不合法列（解析失敗、超界、重複期數）會被丟棄並計入 CleanReport；
// 整份資料清洗後為空才視為致命錯誤。
func LoadHistoryCSV(r io.Reader) (*History, *CleanReport, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		return nil, nil, errs.Wrap(err, "read csv header failed")
	}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, nil, err
	}

	rep := new(CleanReport)
	seen := map[int]struct{}{}
	var ds []Draw

	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 欄位數不符等結構性問題：整列丟棄
			rep.Total++
			rep.DroppedParse++
			continue
		}
		rep.Total++

		seq := len(ds) + 1
		if idx.seq >= 0 {
			v, err := strconv.Atoi(strings.TrimSpace(rec[idx.seq]))
			if err != nil {
				rep.DroppedParse++
				continue
			}
			seq = v
		}
		if _, dup := seen[seq]; dup {
			rep.DroppedDup++
			continue
		}

		var date time.Time
		if idx.date >= 0 {
			if date, err = time.Parse(dateLayout, strings.TrimSpace(rec[idx.date])); err != nil {
				rep.DroppedParse++
				continue
			}
		}

		balls, stars, err := idx.numbers(rec)
		if err != nil {
			rep.DroppedParse++
			continue
		}
		d, err := New(seq, date, balls, stars)
		if err != nil {
			rep.DroppedRange++
			continue
		}
		seen[seq] = struct{}{}
		ds = append(ds, d)
	}
	rep.Kept = len(ds)

	h, err := NewHistory(ds)
	if err != nil {
		return nil, rep, err
	}
	return h, rep, nil
}

// LoadTicketsCSV 讀取實際投注紀錄 CSV。
//
// Rank/Payout 欄位可省略或留白（= 未中獎）；其餘驗證與 LoadHistoryCSV 相同。
func LoadTicketsCSV(r io.Reader) ([]Ticket, *CleanReport, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		return nil, nil, errs.Wrap(err, "read csv header failed")
	}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, nil, err
	}

	rep := new(CleanReport)
	var ts []Ticket

	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rep.Total++
			rep.DroppedParse++
			continue
		}
		rep.Total++

		var date time.Time
		if idx.date >= 0 {
			if date, err = time.Parse(dateLayout, strings.TrimSpace(rec[idx.date])); err != nil {
				rep.DroppedParse++
				continue
			}
		}
		balls, stars, err := idx.numbers(rec)
		if err != nil {
			rep.DroppedParse++
			continue
		}
		d, err := New(len(ts)+1, date, balls, stars)
		if err != nil {
			rep.DroppedRange++
			continue
		}

		t := Ticket{Draw: d}
		if idx.rank >= 0 {
			if s := strings.TrimSpace(rec[idx.rank]); s != "" {
				if t.Rank, err = strconv.Atoi(s); err != nil || t.Rank < 0 || t.Rank > spec.NumRanks {
					rep.DroppedParse++
					continue
				}
			}
		}
		if idx.payout >= 0 {
			if s := strings.TrimSpace(rec[idx.payout]); s != "" {
				if t.Payout, err = strconv.ParseFloat(s, 64); err != nil {
					rep.DroppedParse++
					continue
				}
			}
		}
		ts = append(ts, t)
	}
	rep.Kept = len(ts)

	if len(ts) == 0 {
		return nil, rep, errs.NewFatal("no valid tickets after cleaning")
	}
	return ts, rep, nil
}
