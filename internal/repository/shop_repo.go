package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopify_ai_dev_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// ShopRepository 店铺仓储接口
type ShopRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Shop, error)
	GetByDomain(ctx context.Context, domain string) (*model.Shop, error)
	ListActive(ctx context.Context) ([]model.Shop, error)

	// UpsertByDomain 按域名原子落库：不存在则创建，存在则刷新凭证并激活
	// 授权流程是唯一的凭证写入方
	UpsertByDomain(ctx context.Context, domain, accessToken string) (*model.Shop, error)

	// Deactivate 卸载处理：清空凭证、置为失活，商品数据保留
	Deactivate(ctx context.Context, domain string) error
}

// ==================== 仓储实现 ====================

type shopRepo struct {
	db *gorm.DB
}

// NewShopRepository 创建店铺仓储
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) GetByDomain(ctx context.Context, domain string) (*model.Shop, error) {
	var shop model.Shop
	err := r.db.WithContext(ctx).
		Where("shop_domain = ?", domain).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepo) ListActive(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&shops).Error
	return shops, err
}

func (r *shopRepo) UpsertByDomain(ctx context.Context, domain, accessToken string) (*model.Shop, error) {
	shop := model.Shop{
		ShopDomain:  domain,
		AccessToken: accessToken,
		IsActive:    true,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "is_active", "updated_at"}),
	}).Create(&shop).Error
	if err != nil {
		return nil, err
	}
	// OnConflict 分支下 ID 不可靠，按唯一键重查一次
	return r.GetByDomain(ctx, domain)
}

func (r *shopRepo) Deactivate(ctx context.Context, domain string) error {
	return r.db.WithContext(ctx).
		Model(&model.Shop{}).
		Where("shop_domain = ?", domain).
		Updates(map[string]interface{}{
			"access_token": "",
			"is_active":    false,
		}).Error
}
