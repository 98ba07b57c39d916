package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/models"
)

// ErrCartRecordInvalid 持久化记录无法解析
var ErrCartRecordInvalid = errors.New("cart record invalid")

// CartStorage 购物车持久化端口
type CartStorage interface {
	Load(ctx context.Context) ([]models.CartLineItem, error)
	Save(ctx context.Context, items []models.CartLineItem) error
}

// CartRecord 持久化记录格式
type CartRecord struct {
	Version int                   `json:"version"`
	Items   []models.CartLineItem `json:"items"`
}

// NamespaceKey 生成会话购物车的命名空间 key
func NamespaceKey(namespace, sessionID string) string {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "cart"
	}
	return fmt.Sprintf("%s:%s", namespace, strings.TrimSpace(sessionID))
}

// EncodeCartRecord 序列化购物车
func EncodeCartRecord(items []models.CartLineItem) ([]byte, error) {
	if items == nil {
		items = []models.CartLineItem{}
	}
	return json.Marshal(CartRecord{
		Version: constants.CartRecordVersion,
		Items:   items,
	})
}

// DecodeCartRecord 解析购物车记录，兼容无版本的数组格式。
// 解析后丢弃空 ID 与非正数量的项，重复 ID 合并数量。
func DecodeCartRecord(data []byte) ([]models.CartLineItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var items []models.CartLineItem
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCartRecordInvalid, err)
		}
	case '{':
		var record CartRecord
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCartRecordInvalid, err)
		}
		if record.Version > constants.CartRecordVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrCartRecordInvalid, record.Version)
		}
		items = record.Items
	default:
		return nil, fmt.Errorf("%w: unexpected token %q", ErrCartRecordInvalid, trimmed[0])
	}
	return NormalizeCartItems(items), nil
}

// NormalizeCartItems 丢弃空 ID 与数量非正的项，合并重复 ID，合并数量饱和不溢出
func NormalizeCartItems(items []models.CartLineItem) []models.CartLineItem {
	if len(items) == 0 {
		return nil
	}
	result := make([]models.CartLineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" || item.Quantity <= 0 {
			continue
		}
		item.ID = id
		if pos, ok := index[id]; ok {
			result[pos].Quantity = models.AddQuantity(result[pos].Quantity, item.Quantity)
			continue
		}
		index[id] = len(result)
		result = append(result, item)
	}
	return result
}
