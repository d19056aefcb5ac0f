package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product 本地镜像的 Shopify 商品
// 对账键是 (shop_id, shopify_id)，本地主键永远不参与对账
type Product struct {
	BaseModel

	ShopID int64 `gorm:"index;uniqueIndex:idx_shop_listing;not null" json:"shop_id"`
	Shop   *Shop `gorm:"foreignKey:ShopID" json:"-"`

	// Shopify 侧商品 ID，店铺内唯一
	ShopifyID string `gorm:"size:64;uniqueIndex:idx_shop_listing;not null" json:"shopify_id"`

	Title       string `gorm:"size:255" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Vendor      string `gorm:"size:255" json:"vendor"`
	ProductType string `gorm:"size:255" json:"product_type"`
	Status      string `gorm:"size:20" json:"status"` // active, draft, archived

	// Shopify 原始 tags 为逗号分隔字符串，入库前拆成数组
	Tags datatypes.JSON `gorm:"type:jsonb" json:"tags"`

	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Generations []AiGeneration   `gorm:"foreignKey:ProductID" json:"generations,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// ProductVariant 商品变体，恒属于一个 Product
// 父商品不存在时变体写入必须整体失败
type ProductVariant struct {
	BaseModel

	ProductID int64    `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Shopify 侧变体 ID，全局唯一
	ShopifyID string `gorm:"size:64;uniqueIndex;not null" json:"shopify_id"`

	Title     string          `gorm:"size:255" json:"title"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"` // 非负
	Inventory int             `gorm:"default:0" json:"inventory"`      // >= 0
	SKU       string          `gorm:"size:100;index" json:"sku"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}
