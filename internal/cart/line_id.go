package cart

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/framestock/internal/models"
)

// LineID 由商品类型、商品ID和选项派生购物车项ID。
// 无选项时为 type-productId，有选项时追加选项键值对的稳定哈希，
// 不同配置（如不同尺寸的打印件）不会合并为同一项。
func LineID(productType, productID string, options models.CartOptions) string {
	base := normalizeType(productType) + "-" + strings.TrimSpace(productID)
	suffix := optionDiscriminator(options)
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

func optionDiscriminator(options models.CartOptions) string {
	if len(options) == 0 {
		return ""
	}
	h := fnv.New32a()
	written := 0
	for _, key := range options.SortedKeys() {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(options[key])
		if k == "" || v == "" {
			continue
		}
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(v))
		_, _ = h.Write([]byte{'\n'})
		written++
	}
	if written == 0 {
		return ""
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

func normalizeType(productType string) string {
	return strings.ToLower(strings.TrimSpace(productType))
}
