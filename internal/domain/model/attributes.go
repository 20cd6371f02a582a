package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// 寸法。DBにはJSONで1カラム保存する
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Unit   string          `json:"unit"`
}

func (d Dimensions) IsZero() bool {
	return d.Length.IsZero() && d.Width.IsZero() && d.Height.IsZero() && d.Unit == ""
}

func (d Dimensions) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Dimensions) Scan(src any) error {
	*d = Dimensions{}
	b, err := jsonBytes(src)
	if err != nil || len(b) == 0 {
		return err
	}
	return json.Unmarshal(b, d)
}

// 仕様（"Material": "Steel" など）
type Specifications map[string]string

func (s Specifications) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Specifications) Scan(src any) error {
	*s = Specifications{}
	b, err := jsonBytes(src)
	if err != nil || len(b) == 0 {
		return err
	}
	return json.Unmarshal(b, (*map[string]string)(s))
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", src)
	}
}
