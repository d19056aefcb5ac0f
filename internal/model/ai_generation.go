package model

import "gorm.io/datatypes"

// 生成类型常量
const (
	GenerationKindDescription = "DESCRIPTION"
	GenerationKindAdCopy      = "AD_COPY"
)

// AiGeneration AI 生成记录，审计用途
// 只追加：每次成功调用写一条，相同参数重复调用也各记一条，永不去重、永不修改
type AiGeneration struct {
	BaseModel

	ProductID int64    `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Kind string `gorm:"size:20;index;not null" json:"kind"` // DESCRIPTION / AD_COPY

	// 供应商返回的结构化原文
	Content datatypes.JSON `gorm:"type:jsonb" json:"content"`

	// 调用参数 (tone / language / platform / target_audience)
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
}

func (AiGeneration) TableName() string {
	return "ai_generations"
}
