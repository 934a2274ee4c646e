package domain

import "time"

// Email 表示一封已归属用户的入站邮件。
//
// UserID 在入库时从解析到的 Address 冗余复制，属弱引用：
// 之后删除 Address 不影响既有邮件的归属。
type Email struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	RecipientEmail string    `json:"recipientEmail" gorm:"type:varchar(255);index"`
	From           string    `json:"from" gorm:"type:varchar(255)"`
	Subject        string    `json:"subject" gorm:"type:varchar(500)"`
	Text           string    `json:"text" gorm:"type:text"`
	HTML           string    `json:"html" gorm:"type:text"`
	Read           bool      `json:"read" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
}

// InboundMessage 表示邮件中继通过 webhook 投递的原始消息。
type InboundMessage struct {
	From        string              `json:"from"`
	To          string              `json:"to"`
	Subject     string              `json:"subject"`
	Text        string              `json:"text"`
	HTML        string              `json:"html"`
	Attachments []InboundAttachment `json:"attachments,omitempty"`
}

// InboundAttachment 附件载荷。当前契约接受但不持久化附件。
type InboundAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}
