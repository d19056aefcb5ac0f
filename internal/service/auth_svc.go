package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/config"
	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/pkg/utils"
)

// ==================== 依赖接口 ====================

// TokenIssuer 会话凭证签发方（JWT 管理器实现）
type TokenIssuer interface {
	Generate(userID int64, email string) (string, error)
}

// SyncLauncher 后台全量同步的触发入口（task.SyncRunner 实现）
type SyncLauncher interface {
	Launch(domain string) error
}

// ==================== 授权服务 ====================

// AuthService 驱动 OAuth 安装流程与本地登录
// 状态机：NOT_INSTALLED -> AUTHORIZING -> INSTALLED
// 全系统只有这里会写店铺凭证
type AuthService struct {
	cfg      config.Config
	shopRepo repository.ShopRepository
	userRepo repository.UserRepository
	shopify  *ShopifyService
	verifier *SignatureVerifier
	tokens   TokenIssuer
	launcher SyncLauncher
	log      *zap.SugaredLogger
}

// NewAuthService 工厂方法
func NewAuthService(
	cfg config.Config,
	shopRepo repository.ShopRepository,
	userRepo repository.UserRepository,
	shopifySvc *ShopifyService,
	verifier *SignatureVerifier,
	tokens TokenIssuer,
	launcher SyncLauncher,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		shopRepo: shopRepo,
		userRepo: userRepo,
		shopify:  shopifySvc,
		verifier: verifier,
		tokens:   tokens,
		launcher: launcher,
		log:      log,
	}
}

// InstallURL 生成 Shopify 授权跳转链接
// state 是一次性防伪随机数，绑定发起安装的店铺域名，回调时必须对上
func (s *AuthService) InstallURL(shopDomain string) (string, error) {
	shopDomain = strings.TrimSpace(shopDomain)
	if shopDomain == "" || strings.Contains(shopDomain, "/") {
		return "", fmt.Errorf("非法的店铺域名: %q", shopDomain)
	}

	state := uuid.NewString()
	utils.SetState(state, shopDomain)

	redirectURI := s.cfg.Server.Host + "/api/auth/shopify/callback"
	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s&grant_options[]=offline",
		shopDomain,
		s.cfg.Shopify.ApiKey,
		s.cfg.Shopify.Scopes,
		url.QueryEscape(redirectURI),
		state,
	)
	return authURL, nil
}

// HandleCallback 处理授权回调 -> 换 Token 入库 -> 签发会话凭证
// 签名或 state 不通过是终态失败，不写任何本地状态，用户需重新发起；
// 换 token 同样只尝试一次（授权码单次有效）
func (s *AuthService) HandleCallback(ctx context.Context, query url.Values) (string, error) {
	shopDomain := query.Get("shop")
	code := query.Get("code")
	if shopDomain == "" || code == "" || query.Get("hmac") == "" {
		return "", fmt.Errorf("%w: 缺少 shop/code/hmac 参数", ErrInvalidSignature)
	}

	// 1. state 校验（用完即焚）
	boundShop, ok := utils.ConsumeState(query.Get("state"))
	if !ok || boundShop != shopDomain {
		return "", ErrStateMismatch
	}

	// 2. 查询串签名校验
	if !s.verifier.VerifyQuery(query) {
		return "", ErrInvalidSignature
	}

	// 3. 换取长期凭证（单次，不重试）
	accessToken, err := s.shopify.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		return "", err
	}

	// 4. 店铺入库：重装即刷新凭证并重新激活
	shop, err := s.shopRepo.UpsertByDomain(ctx, shopDomain, accessToken)
	if err != nil {
		return "", fmt.Errorf("店铺入库失败: %w", err)
	}

	// 5. 补齐店铺归属用户
	user, err := s.ensureShopUser(ctx, shop)
	if err != nil {
		return "", err
	}

	// 6. 签发会话凭证
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("签发会话凭证失败: %w", err)
	}

	// 7. 安装后置动作全部后台进行，不阻塞回调响应
	s.postInstall(shop)

	return token, nil
}

// ensureShopUser 找到或建立店铺归属用户
// 顺序：已绑定用户 -> 同邮箱老用户挂接 -> 新建（每店铺最多自动建一个）
func (s *AuthService) ensureShopUser(ctx context.Context, shop *model.Shop) (*model.SysUser, error) {
	user, err := s.userRepo.GetFirstByShopID(ctx, shop.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 约定邮箱：admin@{域名}
	email := "admin@" + shop.ShopDomain
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		// 老邮箱挂到新店铺上，不另建账号
		if err := s.userRepo.LinkShop(ctx, existing.ID, shop.ID); err != nil {
			return nil, err
		}
		existing.ShopID = &shop.ID
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &model.SysUser{Email: email, ShopID: &shop.ID}
	if err := s.userRepo.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// postInstall webhook 订阅 + 首次全量同步
// 两者都是尽力而为：失败只记日志，绝不让安装响应挂掉
func (s *AuthService) postInstall(shop *model.Shop) {
	domain, token := shop.ShopDomain, shop.AccessToken

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.shopify.RegisterWebhooks(ctx, domain, token); err != nil {
			s.log.Warnw("安装后 webhook 订阅未完全成功", "shop", domain, "err", err)
		}
	}()

	if s.launcher != nil {
		if err := s.launcher.Launch(domain); err != nil {
			s.log.Warnw("首次全量同步启动失败", "shop", domain, "err", err)
		}
	}
}

// ==================== 本地登录 ====================

// LoginOrRegister 邮箱+密码登录；邮箱不存在时注册
// 独立账号模式：没有店铺也可以先用起来
func (s *AuthService) LoginOrRegister(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		user = &model.SysUser{Email: email, Password: string(hash)}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	} else {
		// OAuth 自动建立的账号没有密码，不能走密码登录
		if user.Password == "" {
			return "", ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
	}

	return s.tokens.Generate(user.ID, user.Email)
}
