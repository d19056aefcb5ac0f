package model

// Shop 一条记录对应一个已连接的 Shopify 店铺
// AccessToken 是一次性 OAuth 换取的长期凭证，只有授权流程会写入，
// 卸载事件会清空；其余组件只读，不得修改
type Shop struct {
	BaseModel

	// 核心身份：店铺域名 (xxx.myshopify.com)，全局唯一
	ShopDomain string `gorm:"size:255;uniqueIndex;not null" json:"shop_domain"`

	// 长期访问凭证 (offline access token)
	AccessToken string `gorm:"size:255" json:"-"`

	// 卸载后置为 false，重装恢复 true
	// 失活店铺不参与任何出站调用（写回、全量同步）
	IsActive bool `gorm:"default:true;index" json:"is_active"`

	// 关联关系
	Users    []SysUser `gorm:"foreignKey:ShopID" json:"-"`
	Products []Product `gorm:"foreignKey:ShopID" json:"-"`
}

func (Shop) TableName() string {
	return "shops"
}
