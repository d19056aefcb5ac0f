package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopify_ai_dev_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
// 对账路径只走按远端 ID 的原子 upsert，webhook 重复投递下收敛而不是竞态
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByShopifyID(ctx context.Context, shopID int64, shopifyID string) (*model.Product, error)
	ListByShop(ctx context.Context, shopID int64) ([]model.Product, error)

	// Upsert 按 (shop_id, shopify_id) 冲突键写入
	// columns 指定冲突时允许覆盖的列：增量事件未下发的字段不在列表里，绝不清零
	Upsert(ctx context.Context, product *model.Product, columns []string) error

	// UpsertVariant 按 shopify_id 冲突键写入变体，要求 ProductID 已解析
	UpsertVariant(ctx context.Context, variant *model.ProductVariant, columns []string) error

	// UpdateDescription 写回成功后镜像远端描述
	UpdateDescription(ctx context.Context, id int64, description string) error
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Generations").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByShopifyID(ctx context.Context, shopID int64, shopifyID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND shopify_id = ?", shopID, shopifyID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) ListByShop(ctx context.Context, shopID int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("shop_id = ?", shopID).
		Order("updated_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Upsert(ctx context.Context, product *model.Product, columns []string) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "shop_id"}, {Name: "shopify_id"}},
	}
	if len(columns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(append(columns, "updated_at"))
	} else {
		onConflict.DoNothing = true
	}
	return r.db.WithContext(ctx).Clauses(onConflict).Create(product).Error
}

func (r *productRepo) UpsertVariant(ctx context.Context, variant *model.ProductVariant, columns []string) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "shopify_id"}},
	}
	if len(columns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(append(columns, "updated_at"))
	} else {
		onConflict.DoNothing = true
	}
	return r.db.WithContext(ctx).Clauses(onConflict).Create(variant).Error
}

func (r *productRepo) UpdateDescription(ctx context.Context, id int64, description string) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("description", description).Error
}
