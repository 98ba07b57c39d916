package repository

import "gorm.io/gorm"

// applyLimit 限制查询条数，非正数不限制
func applyLimit(query *gorm.DB, limit int) *gorm.DB {
	if query == nil || limit <= 0 {
		return query
	}
	return query.Limit(limit)
}
