package models

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"sort"
)

// ProductSnapshot 加入购物车时的商品展示字段快照
type ProductSnapshot struct {
	ID      string    `json:"id"`       // 目录商品ID
	Type    string    `json:"type"`     // photo / video / print
	Title   string    `json:"title"`    // 标题
	Image   string    `json:"image"`    // 图片地址
	Price   PriceText `json:"price"`    // 主价格字段
	PriceHD PriceText `json:"price_hd"` // 备用价格字段（HD 授权价）
}

// CartOptions 购物车项选择信息（授权档位、实物标记、材质尺寸等）
type CartOptions map[string]string

// SortedKeys 返回有序 key 列表
func (o CartOptions) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone 复制选项
func (o CartOptions) Clone() CartOptions {
	if len(o) == 0 {
		return nil
	}
	out := make(CartOptions, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Value 实现 driver.Valuer 接口
func (o CartOptions) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

// Scan 实现 sql.Scanner 接口
func (o *CartOptions) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return nil
	}
}

// CartLineItem 购物车项
type CartLineItem struct {
	ID       string          `json:"id"`                // 由商品类型、商品ID、选项派生
	Product  ProductSnapshot `json:"product"`           // 商品快照
	Quantity int             `json:"quantity"`          // 数量
	Options  CartOptions     `json:"options,omitempty"` // 选择信息
}

// Clone 深拷贝购物车项
func (i CartLineItem) Clone() CartLineItem {
	i.Options = i.Options.Clone()
	return i
}

// AddQuantity 累加数量，溢出时取 math.MaxInt
func AddQuantity(current, delta int) int {
	if delta > 0 && current > math.MaxInt-delta {
		return math.MaxInt
	}
	if delta < 0 && current < math.MinInt-delta {
		return math.MinInt
	}
	return current + delta
}
