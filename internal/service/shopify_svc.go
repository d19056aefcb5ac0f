package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"shopify_ai_dev_v1_202601/internal/config"
	"shopify_ai_dev_v1_202601/pkg/shopify"
)

// Admin API 版本
const shopifyApiVersion = "2023-10"

// ==================== 远端平台客户端 ====================

// ShopifyService Shopify Admin API 客户端
// 所有出站请求共用一个带超时的 resty 客户端；失败原样上抛，不在这里重试
type ShopifyService struct {
	cfg    config.ShopifyConfig
	host   string // 本服务对外地址，webhook 回调以此拼接
	client *resty.Client
	log    *zap.SugaredLogger
}

// NewShopifyService 创建客户端
func NewShopifyService(cfg config.ShopifyConfig, host string, log *zap.SugaredLogger) *ShopifyService {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Shopify-AI-Go/1.0")

	return &ShopifyService{
		cfg:    cfg,
		host:   host,
		client: client,
		log:    log,
	}
}

// shopURL 拼接店铺维度的请求地址
// APIBase 配置后优先生效（测试时指向 mock 服务）
func (s *ShopifyService) shopURL(domain, path string) string {
	if s.cfg.APIBase != "" {
		return s.cfg.APIBase + path
	}
	return "https://" + domain + path
}

// ExchangeToken 用授权码换取长期 access token
// 授权码单次有效且几分钟内过期，这里只发一次，失败不自动重试
func (s *ShopifyService) ExchangeToken(ctx context.Context, domain, code string) (string, error) {
	var tokenResp shopify.TokenResp

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"client_id":     s.cfg.ApiKey,
			"client_secret": s.cfg.ApiSecret,
			"code":          code,
		}).
		SetResult(&tokenResp).
		Post(s.shopURL(domain, "/admin/oauth/access_token"))

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: 远端返回 %d", ErrTokenExchange, resp.StatusCode())
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: 响应中没有 access_token", ErrTokenExchange)
	}
	return tokenResp.AccessToken, nil
}

// FetchProducts 分页拉取商品，sinceID 为上一页最后一个商品 ID，0 表示首页
func (s *ShopifyService) FetchProducts(ctx context.Context, domain, accessToken string, limit int, sinceID int64) ([]shopify.ProductDTO, error) {
	var result shopify.ProductsResp

	req := s.client.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&result)
	if sinceID > 0 {
		req.SetQueryParam("since_id", strconv.FormatInt(sinceID, 10))
	}

	resp, err := req.Get(s.shopURL(domain, "/admin/api/"+shopifyApiVersion+"/products.json"))
	if err != nil {
		return nil, fmt.Errorf("拉取商品失败: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("拉取商品失败: 远端返回 %d", resp.StatusCode())
	}
	return result.Products, nil
}

// UpdateProductDescription 推送描述到远端商品
func (s *ShopifyService) UpdateProductDescription(ctx context.Context, domain, accessToken, shopifyID, description string) error {
	idNum, err := strconv.ParseInt(shopifyID, 10, 64)
	if err != nil {
		return fmt.Errorf("非法的远端商品 ID %q: %w", shopifyID, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetBody(map[string]interface{}{
			"product": map[string]interface{}{
				"id":        idNum,
				"body_html": description,
			},
		}).
		Put(s.shopURL(domain, "/admin/api/"+shopifyApiVersion+"/products/"+shopifyID+".json"))

	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteBack, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: 远端返回 %d", ErrWriteBack, resp.StatusCode())
	}
	return nil
}

// RegisterWebhooks 订阅目录变更与卸载事件
// 尽力而为：单个 topic 失败只记日志，不阻断安装流程
func (s *ShopifyService) RegisterWebhooks(ctx context.Context, domain, accessToken string) error {
	address := s.host + "/api/webhooks/shopify"
	topics := []string{shopify.TopicProductsUpdate, shopify.TopicAppUninstalled}

	var lastErr error
	for _, topic := range topics {
		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("X-Shopify-Access-Token", accessToken).
			SetBody(shopify.WebhookReq{Webhook: shopify.WebhookDTO{
				Topic:   topic,
				Address: address,
				Format:  "json",
			}}).
			Post(s.shopURL(domain, "/admin/api/"+shopifyApiVersion+"/webhooks.json"))

		if err != nil {
			lastErr = err
			s.log.Warnw("webhook 订阅失败", "shop", domain, "topic", topic, "err", err)
			continue
		}
		// 已存在时 Shopify 返回 422，视为订阅成功
		if !resp.IsSuccess() && resp.StatusCode() != 422 {
			lastErr = fmt.Errorf("topic %s 返回 %d", topic, resp.StatusCode())
			s.log.Warnw("webhook 订阅被拒绝", "shop", domain, "topic", topic, "status", resp.StatusCode())
		}
	}
	return lastErr
}
