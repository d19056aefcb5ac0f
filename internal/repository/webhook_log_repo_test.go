package repository

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"shopify_ai_dev_v1_202601/internal/model"
)

func TestWebhookLogRepo_ListByDomain(t *testing.T) {
	db := setupRepoTestDB(t)
	if err := db.AutoMigrate(&model.WebhookLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	repo := NewWebhookLogRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.Create(ctx, &model.WebhookLog{
			ShopDomain: "demo.myshopify.com",
			Topic:      "products/update",
			Payload:    datatypes.JSON(`{"id":1}`),
		})
		if err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}
	repo.Create(ctx, &model.WebhookLog{ShopDomain: "other.myshopify.com", Topic: "app/uninstalled"})

	logs, err := repo.ListByDomain(ctx, "demo.myshopify.com", 2)
	if err != nil {
		t.Fatalf("ListByDomain 失败: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("条数 = %d, want 2 (limit 截断)", len(logs))
	}
	for _, l := range logs {
		if l.ShopDomain != "demo.myshopify.com" {
			t.Errorf("混入了其他店铺的日志: %s", l.ShopDomain)
		}
	}

	// limit 缺省 50
	all, err := repo.ListByDomain(ctx, "demo.myshopify.com", 0)
	if err != nil {
		t.Fatalf("ListByDomain 失败: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("条数 = %d, want 3", len(all))
	}
}
