package spec

import (
	"encoding/json"

	"github.com/zintix-labs/lotolab/errs"
	"gopkg.in/yaml.v3"
)

// GetLabSettingByYAML
// 會讀取 YAML 設定、補上預設值並執行基本檢查後回傳。
//
// ScoreStars 預設為 true（星號參與評分）；設定檔缺欄位時沿用預設，
// 明確寫 false 才會切到「只看主球」的簡化模式。
func GetLabSettingByYAML(data []byte) (*LabSetting, error) {
	ls := &LabSetting{}
	ls.Sim.ScoreStars = true
	if err := yaml.Unmarshal(data, ls); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "lab setting initialized err")
	}

	return ls, nil
}

// GetLabSettingByJSON
// 會讀取 Json 設定、補上預設值並執行基本檢查後回傳
func GetLabSettingByJSON(data []byte) (*LabSetting, error) {
	ls := &LabSetting{}
	ls.Sim.ScoreStars = true
	if err := json.Unmarshal(data, ls); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "lab setting initialized err")
	}

	return ls, nil
}
