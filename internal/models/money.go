package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyScale 金额对外展示与落库的小数位数
const moneyScale = 2

// Money 金额类型，内部保留完整精度，输出时统一保留 2 位小数
type Money struct {
	decimal.Decimal
}

// ZeroMoney 零金额
func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount}
}

// ParseMoney 解析金额文本
func ParseMoney(raw string) (Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ZeroMoney(), nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ZeroMoney(), fmt.Errorf("invalid money %q: %w", raw, err)
	}
	return Money{Decimal: d}, nil
}

// Add 金额相加
func (m Money) Add(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

// MulInt 金额乘以数量
func (m Money) MulInt(n int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(n)))}
}

// Rounded 按展示精度四舍五入
func (m Money) Rounded() decimal.Decimal {
	return m.Decimal.Round(moneyScale)
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}

// MarshalJSON 输出为 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 接受字符串、数字或 null
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = ZeroMoney()
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value 落库时按展示精度截取
func (m Money) Value() (driver.Value, error) {
	return m.Rounded().Value()
}

// Scan 从数据库读取
func (m *Money) Scan(value interface{}) error {
	return m.Decimal.Scan(value)
}
