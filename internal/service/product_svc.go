package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
)

// ==================== 商品服务 ====================

// ProductService 本地商品查询 + 描述写回网关
type ProductService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	shopRepo    repository.ShopRepository
	shopify     *ShopifyService
	log         *zap.SugaredLogger
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	shopRepo repository.ShopRepository,
	shopifySvc *ShopifyService,
	log *zap.SugaredLogger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		userRepo:    userRepo,
		shopRepo:    shopRepo,
		shopify:     shopifySvc,
		log:         log,
	}
}

// shopOfUser 解析当前用户绑定的店铺
func (s *ProductService) shopOfUser(ctx context.Context, userID int64) (*model.Shop, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ShopID == nil {
		return nil, ErrShopNotConnected
	}
	return s.shopRepo.GetByID(ctx, *user.ShopID)
}

// ListForUser 当前用户店铺下的商品，按更新时间倒序
func (s *ProductService) ListForUser(ctx context.Context, userID int64) ([]model.Product, error) {
	shop, err := s.shopOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.productRepo.ListByShop(ctx, shop.ID)
}

// GetForUser 商品详情（含变体与生成记录），校验归属
func (s *ProductService) GetForUser(ctx context.Context, userID, productID int64) (*model.Product, error) {
	shop, err := s.shopOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product.ShopID != shop.ID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// PushDescription 写回网关
// 顺序是硬约束：先远端确认，后本地落库——远端失败时本地必须纹丝不动，
// 绝不把没推出去的值当成线上值展示。远端失败不自动重试（避免触发限流惩罚）
func (s *ProductService) PushDescription(ctx context.Context, userID, productID int64, description string) error {
	shop, err := s.shopOfUser(ctx, userID)
	if err != nil {
		return err
	}

	// 出站前置校验：失活店铺直接拒绝
	if !shop.IsActive || shop.AccessToken == "" {
		return ErrShopInactive
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if product.ShopID != shop.ID {
		return ErrProductNotFound
	}

	// 1. 远端先行
	if err := s.shopify.UpdateProductDescription(ctx, shop.ShopDomain, shop.AccessToken, product.ShopifyID, description); err != nil {
		return err
	}

	// 2. 远端确认后才镜像到本地
	if err := s.productRepo.UpdateDescription(ctx, product.ID, description); err != nil {
		// 远端已是新值而本地落库失败，留痕等下一次对账拉平
		s.log.Errorw("写回已达远端但本地镜像失败", "product_id", product.ID, "err", err)
		return fmt.Errorf("本地镜像失败: %w", err)
	}
	return nil
}
