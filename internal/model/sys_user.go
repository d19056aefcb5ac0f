package model

// SysUser 系统用户
// 两种来源：邮箱+密码注册 (Password 非空) 或 OAuth 安装时自动建立 (Password 为空)
// ShopID 可空：独立账号可以先存在，之后再绑定店铺
type SysUser struct {
	BaseModel

	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255" json:"-"` // bcrypt 哈希，OAuth 建立的账号为空

	ShopID *int64 `gorm:"index" json:"shop_id"`
	Shop   *Shop  `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
}

func (SysUser) TableName() string {
	return "sys_users"
}
