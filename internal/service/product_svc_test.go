package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
)

// ==================== 测试辅助函数 ====================

type productFixture struct {
	svc     *ProductService
	db      *gorm.DB
	user    *model.SysUser
	shop    *model.Shop
	product *model.Product
}

func newProductFixture(t *testing.T, apiBase string) *productFixture {
	db := setupTestDB(t)

	shop := &model.Shop{ShopDomain: "demo.myshopify.com", AccessToken: "tok", IsActive: true}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("创建店铺失败: %v", err)
	}
	user := &model.SysUser{Email: "admin@demo.myshopify.com", ShopID: &shop.ID}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	product := &model.Product{
		ShopID:      shop.ID,
		ShopifyID:   "1001",
		Title:       "Ceramic Mug",
		Description: "<p>old description</p>",
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	svc := NewProductService(
		repository.NewProductRepository(db),
		repository.NewUserRepository(db),
		repository.NewShopRepository(db),
		newTestShopify(apiBase),
		testLogger(),
	)
	return &productFixture{svc: svc, db: db, user: user, shop: shop, product: product}
}

func (f *productFixture) storedDescription(t *testing.T) string {
	t.Helper()
	var p model.Product
	if err := f.db.First(&p, f.product.ID).Error; err != nil {
		t.Fatalf("回查商品失败: %v", err)
	}
	return p.Description
}

// ==================== 写回网关测试 ====================

func TestProductService_PushDescription_Success(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newProductFixture(t, server.URL)
	err := f.svc.PushDescription(context.Background(), f.user.ID, f.product.ID, "<p>new description</p>")
	if err != nil {
		t.Fatalf("PushDescription 失败: %v", err)
	}

	// 远端确认后本地镜像同步
	if got := f.storedDescription(t); got != "<p>new description</p>" {
		t.Errorf("本地描述 = %q, want 新值", got)
	}
	// 远端请求体是 Shopify 的 product 包裹格式
	if !strings.Contains(gotBody, `"body_html"`) || !strings.Contains(gotBody, `"id"`) {
		t.Errorf("远端请求体 = %q", gotBody)
	}
}

// 远端失败时本地必须纹丝不动
func TestProductService_PushDescription_RemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newProductFixture(t, server.URL)
	err := f.svc.PushDescription(context.Background(), f.user.ID, f.product.ID, "<p>new description</p>")
	if !errors.Is(err, ErrWriteBack) {
		t.Fatalf("err = %v, want ErrWriteBack", err)
	}

	if got := f.storedDescription(t); got != "<p>old description</p>" {
		t.Errorf("远端失败后本地描述 = %q, 不应改变", got)
	}
}

// 失活店铺在发出任何出站请求之前就被拒绝
func TestProductService_PushDescription_InactiveShop(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newProductFixture(t, server.URL)
	f.db.Model(f.shop).Updates(map[string]interface{}{"is_active": false, "access_token": ""})

	err := f.svc.PushDescription(context.Background(), f.user.ID, f.product.ID, "x")
	if !errors.Is(err, ErrShopInactive) {
		t.Fatalf("err = %v, want ErrShopInactive", err)
	}
	if requests != 0 {
		t.Errorf("出站请求数 = %d, want 0", requests)
	}
}

// ==================== 归属校验测试 ====================

func TestProductService_GetForUser_Tenancy(t *testing.T) {
	f := newProductFixture(t, "")
	ctx := context.Background()

	// 本店铺商品可见
	got, err := f.svc.GetForUser(ctx, f.user.ID, f.product.ID)
	if err != nil {
		t.Fatalf("GetForUser 失败: %v", err)
	}
	if got.ID != f.product.ID {
		t.Errorf("商品 ID = %d, want %d", got.ID, f.product.ID)
	}

	// 别家店铺的商品不可见，表现为不存在
	otherShop := &model.Shop{ShopDomain: "other.myshopify.com", IsActive: true}
	f.db.Create(otherShop)
	otherProduct := &model.Product{ShopID: otherShop.ID, ShopifyID: "2001", Title: "Other"}
	f.db.Create(otherProduct)

	if _, err := f.svc.GetForUser(ctx, f.user.ID, otherProduct.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}

	// 不存在的 ID 同样报不存在
	if _, err := f.svc.GetForUser(ctx, f.user.ID, 99999); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestProductService_ListForUser_NoShop(t *testing.T) {
	f := newProductFixture(t, "")

	orphan := &model.SysUser{Email: "orphan@example.com", Password: "hash"}
	f.db.Create(orphan)

	_, err := f.svc.ListForUser(context.Background(), orphan.ID)
	if !errors.Is(err, ErrShopNotConnected) {
		t.Errorf("err = %v, want ErrShopNotConnected", err)
	}
}

func TestProductService_ListForUser(t *testing.T) {
	f := newProductFixture(t, "")

	products, err := f.svc.ListForUser(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("ListForUser 失败: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("商品数 = %d, want 1", len(products))
	}
}
