package checkout

import (
	"strings"

	"github.com/framestock/internal/models"
)

// CartEntry 支付意图请求中的购物车条目
type CartEntry struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	Quantity    int    `json:"quantity"`
}

// ShippingAddress 收货地址
type ShippingAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ShippingDetails 收货信息，实体商品时由前端填写
type ShippingDetails struct {
	Name    string          `json:"name,omitempty"`
	Email   string          `json:"email,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Address ShippingAddress `json:"address"`
}

// PaymentIntentRequest 支付意图创建请求
type PaymentIntentRequest struct {
	Cart            []CartEntry      `json:"cart"`
	ShippingDetails *ShippingDetails `json:"shipping_details"`
	SaveInfo        bool             `json:"save_info"`
}

// PaymentIntentResponse 支付意图创建响应
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Error        string `json:"error,omitempty"`
}

// BuildPaymentIntentRequest 根据购物车明细构造请求载荷
// 请求条目不携带配置项，同一商品的不同配置按首次出现顺序合并数量。
func BuildPaymentIntentRequest(items []models.CartLineItem, shipping *ShippingDetails, saveInfo bool) PaymentIntentRequest {
	entries := make([]CartEntry, 0, len(items))
	index := make(map[CartEntry]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		key := CartEntry{
			ProductID:   strings.TrimSpace(item.Product.ID),
			ProductType: strings.ToLower(strings.TrimSpace(item.Product.Type)),
		}
		if pos, ok := index[key]; ok {
			entries[pos].Quantity = models.AddQuantity(entries[pos].Quantity, item.Quantity)
			continue
		}
		index[key] = len(entries)
		key.Quantity = item.Quantity
		entries = append(entries, key)
	}
	return PaymentIntentRequest{
		Cart:            entries,
		ShippingDetails: shipping,
		SaveInfo:        saveInfo,
	}
}
