package shared

import "strconv"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ParseLimit 解析并归一化列表条数参数。
func ParseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
