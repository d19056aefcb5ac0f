package repository

import (
	"context"

	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/model"
)

// WebhookLogRepository Webhook 回执日志仓储接口，只追加
type WebhookLogRepository interface {
	Create(ctx context.Context, entry *model.WebhookLog) error
	ListByDomain(ctx context.Context, domain string, limit int) ([]model.WebhookLog, error)
}

type webhookLogRepo struct {
	db *gorm.DB
}

// NewWebhookLogRepository 创建日志仓储
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepo{db: db}
}

func (r *webhookLogRepo) Create(ctx context.Context, entry *model.WebhookLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *webhookLogRepo) ListByDomain(ctx context.Context, domain string, limit int) ([]model.WebhookLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []model.WebhookLog
	err := r.db.WithContext(ctx).
		Where("shop_domain = ?", domain).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
