package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 应用全局配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Shopify  ShopifyConfig
	AI       AIConfig
	Sync     SyncConfig
}

// ServerConfig 服务配置
type ServerConfig struct {
	Port        string
	Host        string // 对外可访问的地址，回调 URL 以此拼接
	FrontendURL string // 授权完成后跳转的前端地址
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN string
}

// JWTConfig 会话 Token 配置
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// ShopifyConfig Shopify 应用凭证
type ShopifyConfig struct {
	ApiKey    string
	ApiSecret string
	Scopes    string
	// APIBase 留空时按 https://{shop_domain} 拼接请求地址，测试时可指向 mock 服务
	APIBase string
	Timeout time.Duration
}

// AIConfig 文案生成服务配置
type AIConfig struct {
	ApiKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// SyncConfig 目录同步配置
type SyncConfig struct {
	PageSize    int
	RefreshCron string // 周期性全量刷新的 cron 表达式，留空关闭
}

// ==================== 加载 ====================

// Load 从环境变量读取配置，键名与部署清单保持一致
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "4000")
	v.SetDefault("HOST", "http://localhost:4000")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("JWT_SECRET", "supersecret")
	v.SetDefault("JWT_TTL_HOURS", 168) // 7 天
	v.SetDefault("SHOPIFY_SCOPES", "read_products,write_products,read_inventory")
	v.SetDefault("SHOPIFY_TIMEOUT_SECONDS", 20)
	v.SetDefault("GEMINI_MODEL", "gemini-3-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_TIMEOUT_SECONDS", 60)
	v.SetDefault("SYNC_PAGE_SIZE", 50)
	v.SetDefault("SYNC_REFRESH_CRON", "0 0 */6 * * *")

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Host:        v.GetString("HOST"),
			FrontendURL: v.GetString("FRONTEND_URL"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("DATABASE_URL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
			Issuer: "shopify-ai",
		},
		Shopify: ShopifyConfig{
			ApiKey:    v.GetString("SHOPIFY_API_KEY"),
			ApiSecret: v.GetString("SHOPIFY_API_SECRET"),
			Scopes:    v.GetString("SHOPIFY_SCOPES"),
			APIBase:   v.GetString("SHOPIFY_API_BASE"),
			Timeout:   time.Duration(v.GetInt("SHOPIFY_TIMEOUT_SECONDS")) * time.Second,
		},
		AI: AIConfig{
			ApiKey:  v.GetString("GEMINI_API_KEY"),
			Model:   v.GetString("GEMINI_MODEL"),
			BaseURL: v.GetString("GEMINI_BASE_URL"),
			Timeout: time.Duration(v.GetInt("GEMINI_TIMEOUT_SECONDS")) * time.Second,
		},
		Sync: SyncConfig{
			PageSize:    v.GetInt("SYNC_PAGE_SIZE"),
			RefreshCron: v.GetString("SYNC_REFRESH_CRON"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL 未配置")
	}
	if cfg.Shopify.ApiKey == "" || cfg.Shopify.ApiSecret == "" {
		return nil, fmt.Errorf("SHOPIFY_API_KEY / SHOPIFY_API_SECRET 未配置")
	}

	return cfg, nil
}
