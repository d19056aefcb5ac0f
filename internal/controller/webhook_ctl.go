package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shopify_ai_dev_v1_202601/internal/middleware"
	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/internal/service"
	"shopify_ai_dev_v1_202601/pkg/shopify"
)

type WebhookController struct {
	verifier *service.SignatureVerifier
	syncSvc  *service.SyncService
	shopRepo repository.ShopRepository
	logRepo  repository.WebhookLogRepository
	log      *zap.SugaredLogger
}

func NewWebhookController(
	verifier *service.SignatureVerifier,
	syncSvc *service.SyncService,
	shopRepo repository.ShopRepository,
	logRepo repository.WebhookLogRepository,
	log *zap.SugaredLogger,
) *WebhookController {
	return &WebhookController{
		verifier: verifier,
		syncSvc:  syncSvc,
		shopRepo: shopRepo,
		logRepo:  logRepo,
		log:      log,
	}
}

// Receive
// @Summary 接收 Shopify webhook
// @Description 校验 HMAC 签名后按 topic 分发处理；签名不合法一律 401
// @Tags Webhook (回调模块)
// @Accept json
// @Produce json
// @Param X-Shopify-Hmac-Sha256 header string true "请求体签名"
// @Param X-Shopify-Topic header string true "事件主题"
// @Param X-Shopify-Shop-Domain header string true "店铺域名"
// @Success 200 {object} map[string]string "已处理"
// @Failure 401 {object} map[string]string "签名校验失败"
// @Router /api/webhooks/shopify [post]
func (ctrl *WebhookController) Receive(c *gin.Context) {
	signature := c.GetHeader("X-Shopify-Hmac-Sha256")
	topic := c.GetHeader("X-Shopify-Topic")
	domain := c.GetHeader("X-Shopify-Shop-Domain")
	if signature == "" || topic == "" || domain == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少 webhook 头"})
		return
	}

	rawBody := middleware.GetRawBody(c)
	if rawBody == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "请求体不可用"})
		return
	}

	// 先验签，不可信的请求不留任何痕迹
	if !ctrl.verifier.VerifyWebhook(rawBody, signature) {
		ctrl.log.Warnw("webhook 签名校验失败", "shop", domain, "topic", topic)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "签名校验失败"})
		return
	}

	// 处理前先落日志，处理失败也能追溯
	entry := &model.WebhookLog{ShopDomain: domain, Topic: topic, Payload: datatypes.JSON(rawBody)}
	if err := ctrl.logRepo.Create(c.Request.Context(), entry); err != nil {
		ctrl.log.Errorw("webhook 日志写入失败", "shop", domain, "topic", topic, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "日志写入失败"})
		return
	}

	if err := ctrl.dispatch(c, domain, topic, rawBody); err != nil {
		ctrl.log.Errorw("webhook 处理失败", "shop", domain, "topic", topic, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (ctrl *WebhookController) dispatch(c *gin.Context, domain, topic string, rawBody []byte) error {
	ctx := c.Request.Context()

	switch topic {
	case shopify.TopicProductsUpdate:
		shop, err := ctrl.shopRepo.GetByDomain(ctx, domain)
		if err != nil {
			return err
		}
		var dto shopify.ProductDTO
		if err := json.Unmarshal(rawBody, &dto); err != nil {
			return err
		}
		return ctrl.syncSvc.ApplyProduct(ctx, shop, &dto)

	case shopify.TopicAppUninstalled:
		return ctrl.syncSvc.Deactivate(ctx, domain)

	default:
		// 未订阅处理逻辑的 topic 只记日志，避免 Shopify 反复重投
		ctrl.log.Infow("忽略未处理的 webhook topic", "shop", domain, "topic", topic)
		return nil
	}
}
