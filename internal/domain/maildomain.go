package domain

import "time"

// MailDomain 表示允许用于地址分配的邮件域名。
// 以域名本身为主键；重复添加按 upsert 处理（刷新时间戳并重新激活）。
type MailDomain struct {
	Name      string    `json:"name" gorm:"primaryKey;type:varchar(100)"`
	IsActive  bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy" gorm:"type:varchar(36)"`
}
