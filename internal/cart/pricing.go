package cart

import (
	"github.com/framestock/internal/models"
)

// 单价来源
const (
	PriceSourcePrimary   = "price"
	PriceSourceSecondary = "price_hd"
	PriceSourceNone      = "none"
)

// UnitPrice 解析商品快照单价：优先 price，其次 price_hd，均缺失或非法时为 0
func UnitPrice(product models.ProductSnapshot) models.Money {
	price, _ := resolveUnitPrice(product)
	return price
}

func resolveUnitPrice(product models.ProductSnapshot) (models.Money, string) {
	if d, ok := product.Price.Decimal(); ok {
		return models.NewMoneyFromDecimal(d), PriceSourcePrimary
	}
	if d, ok := product.PriceHD.Decimal(); ok {
		return models.NewMoneyFromDecimal(d), PriceSourceSecondary
	}
	return models.ZeroMoney(), PriceSourceNone
}

// LineTotal 单项金额
func LineTotal(item models.CartLineItem) models.Money {
	return UnitPrice(item.Product).MulInt(item.Quantity)
}

// ItemCount 数量合计，溢出时取 math.MaxInt
func ItemCount(items []models.CartLineItem) int {
	total := 0
	for _, item := range items {
		total = models.AddQuantity(total, item.Quantity)
	}
	return total
}

// Subtotal 小计
func Subtotal(items []models.CartLineItem) models.Money {
	total := models.ZeroMoney()
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total
}
