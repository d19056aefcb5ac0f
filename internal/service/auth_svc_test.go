package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/config"
	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
)

// ==================== Mock 实现 ====================

type stubIssuer struct{}

func (stubIssuer) Generate(userID int64, email string) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, email), nil
}

type stubLauncher struct {
	launched []string
}

func (l *stubLauncher) Launch(domain string) error {
	l.launched = append(l.launched, domain)
	return nil
}

// ==================== 测试辅助函数 ====================

const testSecret = "test-secret"

func newAuthFixture(t *testing.T, apiBase string) (*AuthService, *stubLauncher, *gorm.DB) {
	db := setupTestDB(t)
	launcher := &stubLauncher{}

	cfg := config.Config{
		Server:  config.ServerConfig{Host: "http://localhost:4000", FrontendURL: "http://localhost:3000"},
		Shopify: config.ShopifyConfig{ApiKey: "test-key", ApiSecret: testSecret, Scopes: "read_products", APIBase: apiBase},
	}

	svc := NewAuthService(
		cfg,
		repository.NewShopRepository(db),
		repository.NewUserRepository(db),
		newTestShopify(apiBase),
		NewSignatureVerifier(testSecret),
		stubIssuer{},
		launcher,
		testLogger(),
	)
	return svc, launcher, db
}

// newTokenStub 处理换 token 和 webhook 订阅的假 Shopify
func newTokenStub(t *testing.T, accessToken string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/oauth/access_token"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"access_token":%q,"scope":"read_products"}`, accessToken)
		case strings.HasSuffix(r.URL.Path, "/webhooks.json"):
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// installState 发起安装并从授权链接里取出 state
func installState(t *testing.T, svc *AuthService, domain string) string {
	t.Helper()
	authURL, err := svc.InstallURL(domain)
	if err != nil {
		t.Fatalf("InstallURL 失败: %v", err)
	}
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("授权链接不合法: %v", err)
	}
	state := parsed.Query().Get("state")
	if state == "" {
		t.Fatal("授权链接缺少 state")
	}
	return state
}

func callbackQuery(state, domain, code string) url.Values {
	query := url.Values{
		"shop":      {domain},
		"code":      {code},
		"state":     {state},
		"timestamp": {"1700000000"},
	}
	query.Set("hmac", signQuery(testSecret, query))
	return query
}

// ==================== 安装流程测试 ====================

func TestAuthService_HandleCallback_Success(t *testing.T) {
	server := newTokenStub(t, "shpat_abc123")
	defer server.Close()

	svc, launcher, db := newAuthFixture(t, server.URL)
	ctx := context.Background()
	domain := "demo.myshopify.com"

	state := installState(t, svc, domain)
	token, err := svc.HandleCallback(ctx, callbackQuery(state, domain, "authcode"))
	if err != nil {
		t.Fatalf("HandleCallback 失败: %v", err)
	}
	if token == "" {
		t.Fatal("应签发会话凭证")
	}

	// 店铺落库且激活
	var shop model.Shop
	if err := db.Where("shop_domain = ?", domain).First(&shop).Error; err != nil {
		t.Fatalf("店铺未入库: %v", err)
	}
	if !shop.IsActive || shop.AccessToken != "shpat_abc123" {
		t.Errorf("shop = {active:%v token:%q}, want 激活且持有凭证", shop.IsActive, shop.AccessToken)
	}

	// 自动建立归属用户
	var user model.SysUser
	if err := db.Where("email = ?", "admin@"+domain).First(&user).Error; err != nil {
		t.Fatalf("归属用户未建立: %v", err)
	}
	if user.ShopID == nil || *user.ShopID != shop.ID {
		t.Error("用户未绑定到店铺")
	}

	// 首次全量同步已触发
	if len(launcher.launched) != 1 || launcher.launched[0] != domain {
		t.Errorf("launched = %v, want [%s]", launcher.launched, domain)
	}
}

func TestAuthService_HandleCallback_TamperedHmac(t *testing.T) {
	server := newTokenStub(t, "shpat_abc123")
	defer server.Close()

	svc, _, db := newAuthFixture(t, server.URL)
	domain := "demo.myshopify.com"

	state := installState(t, svc, domain)
	query := callbackQuery(state, domain, "authcode")
	query.Set("hmac", strings.Repeat("0", 64))

	_, err := svc.HandleCallback(context.Background(), query)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	// 终态失败：不写任何本地状态
	var count int64
	db.Model(&model.Shop{}).Count(&count)
	if count != 0 {
		t.Errorf("签名失败后店铺行数 = %d, want 0", count)
	}
}

func TestAuthService_HandleCallback_StateMismatch(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "")
	domain := "demo.myshopify.com"

	// state 从未发放
	_, err := svc.HandleCallback(context.Background(), callbackQuery("forged-state", domain, "authcode"))
	if !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("err = %v, want ErrStateMismatch", err)
	}

	// state 用完即焚，重放同一回调必须失败
	server := newTokenStub(t, "shpat_abc123")
	defer server.Close()
	svc2, _, _ := newAuthFixture(t, server.URL)

	state := installState(t, svc2, domain)
	query := callbackQuery(state, domain, "authcode")
	if _, err := svc2.HandleCallback(context.Background(), query); err != nil {
		t.Fatalf("首次回调失败: %v", err)
	}
	if _, err := svc2.HandleCallback(context.Background(), query); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("重放 err = %v, want ErrStateMismatch", err)
	}
}

// 同邮箱老账号在安装时挂接到新店铺
func TestAuthService_HandleCallback_LinksExistingUser(t *testing.T) {
	server := newTokenStub(t, "shpat_abc123")
	defer server.Close()

	svc, _, db := newAuthFixture(t, server.URL)
	domain := "demo.myshopify.com"

	existing := &model.SysUser{Email: "admin@" + domain, Password: "hashed"}
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("预置用户失败: %v", err)
	}

	state := installState(t, svc, domain)
	if _, err := svc.HandleCallback(context.Background(), callbackQuery(state, domain, "authcode")); err != nil {
		t.Fatalf("HandleCallback 失败: %v", err)
	}

	var users []model.SysUser
	db.Find(&users)
	if len(users) != 1 {
		t.Fatalf("用户数 = %d, want 1（挂接老账号而不是新建）", len(users))
	}
	if users[0].ShopID == nil {
		t.Error("老账号未绑定店铺")
	}
}

// ==================== 本地登录测试 ====================

func TestAuthService_LoginOrRegister(t *testing.T) {
	svc, _, db := newAuthFixture(t, "")
	ctx := context.Background()

	// 首次登录即注册
	token, err := svc.LoginOrRegister(ctx, "User@Example.com", "password123")
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if token == "" {
		t.Fatal("应签发会话凭证")
	}

	// 邮箱归一化为小写
	var user model.SysUser
	if err := db.Where("email = ?", "user@example.com").First(&user).Error; err != nil {
		t.Fatalf("用户未入库: %v", err)
	}
	if user.Password == "password123" {
		t.Error("密码应存散列而不是明文")
	}

	// 正确密码可再次登录
	if _, err := svc.LoginOrRegister(ctx, "user@example.com", "password123"); err != nil {
		t.Errorf("二次登录失败: %v", err)
	}

	// 错误密码拒绝
	if _, err := svc.LoginOrRegister(ctx, "user@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_LoginOrRegister_OAuthAccount(t *testing.T) {
	svc, _, db := newAuthFixture(t, "")

	// OAuth 自动建立的账号没有密码
	oauthUser := &model.SysUser{Email: "admin@demo.myshopify.com"}
	if err := db.Create(oauthUser).Error; err != nil {
		t.Fatalf("预置用户失败: %v", err)
	}

	_, err := svc.LoginOrRegister(context.Background(), "admin@demo.myshopify.com", "any-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

// ==================== 授权链接测试 ====================

func TestAuthService_InstallURL(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "")

	authURL, err := svc.InstallURL("demo.myshopify.com")
	if err != nil {
		t.Fatalf("InstallURL 失败: %v", err)
	}
	if !strings.HasPrefix(authURL, "https://demo.myshopify.com/admin/oauth/authorize?") {
		t.Errorf("authURL = %q", authURL)
	}
	if !strings.Contains(authURL, "client_id=test-key") {
		t.Error("缺少 client_id")
	}

	// 非法域名拒绝
	if _, err := svc.InstallURL("demo.myshopify.com/evil"); err == nil {
		t.Error("带路径的域名应拒绝")
	}
	if _, err := svc.InstallURL("  "); err == nil {
		t.Error("空域名应拒绝")
	}
}
