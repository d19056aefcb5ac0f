package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopify_ai_dev_v1_202601/internal/controller"
	"shopify_ai_dev_v1_202601/internal/middleware"
)

// Controllers 路由需要的全部控制器
type Controllers struct {
	Auth    *controller.AuthController
	Webhook *controller.WebhookController
	Product *controller.ProductController
	Sync    *controller.SyncController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, jwtManager *middleware.JWTManager, ctrls Controllers) {
	// 1. 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 2. API 路由组
	api := r.Group("/api")
	{
		// auth 鉴权组，无需会话
		auth := api.Group("/auth")
		{
			// POST /api/auth/login
			auth.POST("/login", ctrls.Auth.Login)

			// GET /api/auth/shopify?shop=xxx.myshopify.com
			auth.GET("/shopify", ctrls.Auth.Install)

			// GET /api/auth/shopify/callback
			auth.GET("/shopify/callback", ctrls.Auth.Callback)
		}

		// webhook 组，HMAC 验签代替会话；验签要原始请求体
		webhooks := api.Group("/webhooks", middleware.RawBody())
		{
			// POST /api/webhooks/shopify
			webhooks.POST("/shopify", ctrls.Webhook.Receive)
		}

		// product 组，需要登录
		products := api.Group("/products", jwtManager.AuthRequired())
		{
			products.GET("", ctrls.Product.GetProducts)
			products.GET("/:id", ctrls.Product.GetProduct)
			products.POST("/:id/generate-description", ctrls.Product.GenerateDescription)
			products.POST("/:id/generate-ad", ctrls.Product.GenerateAd)
			products.POST("/:id/push-description", ctrls.Product.PushDescription)
		}

		// sync 组，需要登录
		sync := api.Group("/sync", jwtManager.AuthRequired())
		{
			sync.POST("", ctrls.Sync.Trigger)
			sync.GET("/status", ctrls.Sync.Status)
		}
	}
}
