package domain

import "time"

// Administrator 管理员成员资格记录。
// 管理权限完全由这张成员表决定，每次请求实时查询。
type Administrator struct {
	UserID    string    `json:"userId" gorm:"primaryKey;type:varchar(36)"`
	GrantedBy string    `json:"grantedBy" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
}

// SystemStatistics 管理端统计信息
type SystemStatistics struct {
	TotalUsers        int            `json:"totalUsers"`
	TotalAddresses    int            `json:"totalAddresses"`
	TotalEmails       int            `json:"totalEmails"`
	EmailsToday       int64          `json:"emailsToday"`
	AddressesByDomain map[string]int `json:"addressesByDomain"`
	RecentCounters    []DailyCounter `json:"recentCounters"`
}
