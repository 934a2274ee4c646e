package domain

import "time"

// DailyCounter 按 UTC 日期聚合的邮件接收量。
// 首次接收当日邮件时惰性创建，计数只增不减。
type DailyCounter struct {
	Date          string `json:"date" gorm:"primaryKey;type:varchar(10)"`
	ReceivedCount int64  `json:"receivedCount" gorm:"default:0"`
}

// DateKey 返回 t 对应的 UTC 日期键，格式 YYYY-MM-DD。
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
