package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/pkg/shopify"
)

// ==================== 目录对账服务 ====================

// SyncService 把远端目录幂等地落到本地
// 两个入口共用同一套算法：全量拉取（安装后/手动）和增量事件（单商品 webhook）
// 同一批数据重放任意多次、任意顺序，最终状态一致
type SyncService struct {
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
	shopify     *ShopifyService
	pageSize    int
	log         *zap.SugaredLogger
}

// NewSyncService 创建对账服务
func NewSyncService(
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	shopifySvc *ShopifyService,
	pageSize int,
	log *zap.SugaredLogger,
) *SyncService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &SyncService{
		productRepo: productRepo,
		shopRepo:    shopRepo,
		shopify:     shopifySvc,
		pageSize:    pageSize,
		log:         log,
	}
}

// ==================== 解析与校验 ====================

// productPatch 一件商品的待写入内容
// columns 只含本次下发的字段，缺席字段不会覆盖库里的旧值
type productPatch struct {
	product  model.Product
	columns  []string
	variants []variantPatch
}

type variantPatch struct {
	variant model.ProductVariant
	columns []string
}

// convertProduct 把远端 DTO 解析为待写入补丁
// 任何一处不合法（缺 ID、价格解析失败、负库存）都让整件商品作为坏条目返回错误，
// 坏条目在批量对账里被隔离跳过，不污染库
func (s *SyncService) convertProduct(shopID int64, dto *shopify.ProductDTO) (*productPatch, error) {
	if dto.ID == 0 {
		return nil, fmt.Errorf("缺少远端商品 ID")
	}

	patch := &productPatch{
		product: model.Product{
			ShopID:    shopID,
			ShopifyID: strconv.FormatInt(dto.ID, 10),
		},
	}

	if dto.Title != nil {
		patch.product.Title = *dto.Title
		patch.columns = append(patch.columns, "title")
	}
	if dto.BodyHTML != nil {
		patch.product.Description = *dto.BodyHTML
		patch.columns = append(patch.columns, "description")
	}
	if dto.Vendor != nil {
		patch.product.Vendor = *dto.Vendor
		patch.columns = append(patch.columns, "vendor")
	}
	if dto.ProductType != nil {
		patch.product.ProductType = *dto.ProductType
		patch.columns = append(patch.columns, "product_type")
	}
	if dto.Status != nil {
		patch.product.Status = *dto.Status
		patch.columns = append(patch.columns, "status")
	}
	if dto.Tags != nil {
		tags := splitTags(*dto.Tags)
		raw, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("tags 序列化失败: %w", err)
		}
		patch.product.Tags = raw
		patch.columns = append(patch.columns, "tags")
	}

	for i := range dto.Variants {
		vp, err := s.convertVariant(&dto.Variants[i])
		if err != nil {
			return nil, fmt.Errorf("变体 %d: %w", dto.Variants[i].ID, err)
		}
		patch.variants = append(patch.variants, *vp)
	}

	return patch, nil
}

func (s *SyncService) convertVariant(dto *shopify.VariantDTO) (*variantPatch, error) {
	if dto.ID == 0 {
		return nil, fmt.Errorf("缺少远端变体 ID")
	}

	patch := &variantPatch{
		variant: model.ProductVariant{
			ShopifyID: strconv.FormatInt(dto.ID, 10),
		},
	}

	if dto.Title != nil {
		patch.variant.Title = *dto.Title
		patch.columns = append(patch.columns, "title")
	}
	if dto.Price != nil {
		price, err := decimal.NewFromString(*dto.Price)
		if err != nil {
			return nil, fmt.Errorf("价格 %q 无法解析", *dto.Price)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("价格 %q 为负", *dto.Price)
		}
		patch.variant.Price = price
		patch.columns = append(patch.columns, "price")
	}
	if dto.InventoryQuantity != nil {
		if *dto.InventoryQuantity < 0 {
			return nil, fmt.Errorf("库存 %d 为负", *dto.InventoryQuantity)
		}
		patch.variant.Inventory = *dto.InventoryQuantity
		patch.columns = append(patch.columns, "inventory")
	}
	if dto.SKU != nil {
		patch.variant.SKU = *dto.SKU
		patch.columns = append(patch.columns, "sku")
	}

	return patch, nil
}

// splitTags Shopify 的 tags 是逗号分隔字符串
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ==================== 写入 ====================

// applyPatch 先商品后变体，变体的父 ID 必须取自已提交的商品行
func (s *SyncService) applyPatch(ctx context.Context, patch *productPatch) error {
	if err := s.productRepo.Upsert(ctx, &patch.product, patch.columns); err != nil {
		return fmt.Errorf("商品 upsert 失败: %w", err)
	}

	stored, err := s.productRepo.GetByShopifyID(ctx, patch.product.ShopID, patch.product.ShopifyID)
	if err != nil {
		return fmt.Errorf("商品回查失败: %w", err)
	}

	for i := range patch.variants {
		patch.variants[i].variant.ProductID = stored.ID
		if err := s.productRepo.UpsertVariant(ctx, &patch.variants[i].variant, patch.variants[i].columns); err != nil {
			return fmt.Errorf("变体 upsert 失败: %w", err)
		}
	}
	return nil
}

// ==================== 对外入口 ====================

// ApplyProducts 批量对账
// 单条坏数据隔离跳过并计数，不中断整批；返回成功/失败条数
func (s *SyncService) ApplyProducts(ctx context.Context, shop *model.Shop, dtos []shopify.ProductDTO) (applied, failed int) {
	for i := range dtos {
		patch, err := s.convertProduct(shop.ID, &dtos[i])
		if err != nil {
			failed++
			s.log.Warnw("跳过坏条目", "shop", shop.ShopDomain, "shopify_id", dtos[i].ID, "err", err)
			continue
		}
		if err := s.applyPatch(ctx, patch); err != nil {
			failed++
			s.log.Warnw("条目写入失败", "shop", shop.ShopDomain, "shopify_id", dtos[i].ID, "err", err)
			continue
		}
		applied++
	}
	return applied, failed
}

// ApplyProduct 增量对账：一条目录变更事件对应一件商品
// 单条场景下解析失败就是事件处理失败
func (s *SyncService) ApplyProduct(ctx context.Context, shop *model.Shop, dto *shopify.ProductDTO) error {
	patch, err := s.convertProduct(shop.ID, dto)
	if err != nil {
		return err
	}
	return s.applyPatch(ctx, patch)
}

// ApplyVariants 按远端父商品 ID 写入变体
// 父商品不存在直接拒绝，不写任何变体
func (s *SyncService) ApplyVariants(ctx context.Context, shopID int64, productShopifyID string, dtos []shopify.VariantDTO) error {
	parent, err := s.productRepo.GetByShopifyID(ctx, shopID, productShopifyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 远端商品 %s", ErrProductNotFound, productShopifyID)
		}
		return err
	}

	// 先全部解析通过再写，保证没有半截写入
	patches := make([]variantPatch, 0, len(dtos))
	for i := range dtos {
		vp, err := s.convertVariant(&dtos[i])
		if err != nil {
			return err
		}
		patches = append(patches, *vp)
	}

	for i := range patches {
		patches[i].variant.ProductID = parent.ID
		if err := s.productRepo.UpsertVariant(ctx, &patches[i].variant, patches[i].columns); err != nil {
			return err
		}
	}
	return nil
}

// FullSync 全量拉取对账，安装后首跑，也可手动触发
// 失活店铺直接拒绝，不发任何出站请求
func (s *SyncService) FullSync(ctx context.Context, shop *model.Shop) (applied, failed int, err error) {
	if !shop.IsActive || shop.AccessToken == "" {
		return 0, 0, ErrShopInactive
	}

	sinceID := int64(0)
	for {
		dtos, err := s.shopify.FetchProducts(ctx, shop.ShopDomain, shop.AccessToken, s.pageSize, sinceID)
		if err != nil {
			return applied, failed, err
		}
		if len(dtos) == 0 {
			break
		}

		a, f := s.ApplyProducts(ctx, shop, dtos)
		applied += a
		failed += f

		if len(dtos) < s.pageSize {
			break
		}
		sinceID = dtos[len(dtos)-1].ID
	}

	s.log.Infow("全量同步完成", "shop", shop.ShopDomain, "applied", applied, "failed", failed)
	return applied, failed, nil
}

// Deactivate 卸载事件：清凭证、置失活，商品保留
func (s *SyncService) Deactivate(ctx context.Context, domain string) error {
	return s.shopRepo.Deactivate(ctx, domain)
}
