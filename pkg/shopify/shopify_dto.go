package shopify

// ==========================================
// DTO: 用于接收 Shopify Admin API 的原始 JSON
// ==========================================
// 可选字段一律用指针：增量事件可能只带部分字段，
// nil 表示"本次未下发"，对账时跳过而不是清零

// ProductDTO 单个商品结构 (products.json / products/update webhook 同构)
type ProductDTO struct {
	ID          int64        `json:"id"`
	Title       *string      `json:"title"`
	BodyHTML    *string      `json:"body_html"`
	Vendor      *string      `json:"vendor"`
	ProductType *string      `json:"product_type"`
	Status      *string      `json:"status"`
	Tags        *string      `json:"tags"` // 逗号分隔
	Variants    []VariantDTO `json:"variants"`
}

// VariantDTO 商品变体结构
type VariantDTO struct {
	ID                int64   `json:"id"`
	Title             *string `json:"title"`
	Price             *string `json:"price"` // Shopify 下发字符串金额 "12.34"
	InventoryQuantity *int    `json:"inventory_quantity"`
	SKU               *string `json:"sku"`
}

// ProductsResp 商品列表响应
type ProductsResp struct {
	Products []ProductDTO `json:"products"`
}

// ProductResp 单商品响应
type ProductResp struct {
	Product ProductDTO `json:"product"`
}

// TokenResp OAuth 换取 token 的响应
type TokenResp struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// WebhookReq 注册 webhook 订阅的请求体
type WebhookReq struct {
	Webhook WebhookDTO `json:"webhook"`
}

// WebhookDTO webhook 订阅
type WebhookDTO struct {
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format"`
}

// Webhook 主题常量
const (
	TopicProductsUpdate = "products/update"
	TopicAppUninstalled = "app/uninstalled"
)
