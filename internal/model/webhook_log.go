package model

import "gorm.io/datatypes"

// WebhookLog Webhook 回执日志，只追加
// 在任何业务处理之前落库，处理失败也能留下收到过事件的凭证
type WebhookLog struct {
	BaseModel

	ShopDomain string         `gorm:"size:255;index" json:"shop_domain"`
	Topic      string         `gorm:"size:100;index" json:"topic"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}
