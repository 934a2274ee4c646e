package domain

import "time"

// Address 表示分配给用户的一次性邮箱地址。
// Address 字段保存小写规范形式，全局唯一；创建后不再修改。
type Address struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	Address   string    `json:"address" gorm:"type:varchar(255);uniqueIndex;not null"`
	LocalPart string    `json:"localPart" gorm:"type:varchar(255)"`
	Domain    string    `json:"domain" gorm:"type:varchar(100);index"`
	CreatedAt time.Time `json:"createdAt"`
}
