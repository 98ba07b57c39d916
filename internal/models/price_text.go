package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceText 目录价格原文，兼容字符串与数字，解析失败不影响反序列化
type PriceText string

// UnmarshalJSON 接受字符串、数字或 null
func (p *PriceText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceText(strings.TrimSpace(s))
		return nil
	}
	*p = PriceText(string(b))
	return nil
}

// IsEmpty 是否缺失
func (p PriceText) IsEmpty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// Decimal 解析为十进制数，缺失或非法时返回 false
func (p PriceText) Decimal() (decimal.Decimal, bool) {
	if p.IsEmpty() {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(string(p)))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
