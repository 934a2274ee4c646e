package domain

import "time"

// UserPlan 用户套餐
type UserPlan string

const (
	// PlanFree 受限套餐：同一时刻最多持有 1 个地址
	PlanFree UserPlan = "free"
	// PlanPro 不限量套餐
	PlanPro UserPlan = "pro"
)

// MaxAddresses 返回套餐允许同时持有的地址数量上限，-1 表示不限。
func (p UserPlan) MaxAddresses() int {
	if p == PlanPro {
		return -1
	}
	return 1
}

// User 表示注册用户的业务实体
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255)"`
	Plan         UserPlan   `json:"plan" gorm:"type:varchar(20);default:'free';index"`
	IsActive     bool       `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}
