package repository

import (
	"context"

	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// GenerationRepository AI 生成记录仓储接口
// 只有 Create 和查询：记录是审计流水，不提供修改和删除
type GenerationRepository interface {
	Create(ctx context.Context, gen *model.AiGeneration) error
	ListByProduct(ctx context.Context, productID int64) ([]model.AiGeneration, error)
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}

// ==================== 仓储实现 ====================

type generationRepo struct {
	db *gorm.DB
}

// NewGenerationRepository 创建生成记录仓储
func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepo{db: db}
}

func (r *generationRepo) Create(ctx context.Context, gen *model.AiGeneration) error {
	return r.db.WithContext(ctx).Create(gen).Error
}

func (r *generationRepo) ListByProduct(ctx context.Context, productID int64) ([]model.AiGeneration, error) {
	var gens []model.AiGeneration
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&gens).Error
	return gens, err
}

func (r *generationRepo) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AiGeneration{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
