package controller

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"shopify_ai_dev_v1_202601/internal/config"
	"shopify_ai_dev_v1_202601/internal/service"
)

type AuthController struct {
	cfg         *config.Config
	authService *service.AuthService
}

func NewAuthController(cfg *config.Config, s *service.AuthService) *AuthController {
	return &AuthController{cfg: cfg, authService: s}
}

// Login
// @Summary 邮箱密码登录
// @Description 邮箱不存在时自动注册；OAuth 创建的账户不支持密码登录
// @Tags Auth (授权模块)
// @Accept json
// @Produce json
// @Param body body object true "email + password"
// @Success 200 {object} map[string]interface{} "token"
// @Failure 401 {object} map[string]string "凭证错误"
// @Router /api/auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误", "detail": err.Error()})
		return
	}

	token, err := ctrl.authService.LoginOrRegister(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "登录失败", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "登录成功",
		"token":   token,
	})
}

// Install
// @Summary 生成 Shopify 授权链接
// @Description 为店铺生成 OAuth 授权跳转链接，state 随机并缓存十分钟
// @Tags Auth (授权模块)
// @Produce json
// @Param shop query string true "店铺域名，如 demo.myshopify.com"
// @Success 302 {string} string "重定向到 Shopify 授权页"
// @Failure 400 {object} map[string]string "参数错误"
// @Router /api/auth/shopify [get]
func (ctrl *AuthController) Install(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop 为空"})
		return
	}

	authURL, err := ctrl.authService.InstallURL(shop)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "生成失败", "detail": err.Error()})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback
// @Summary Shopify 授权回调
// @Description 校验 state 和 hmac，换取 Token 入库，签发会话后跳回前端
// @Tags Auth (授权模块)
// @Produce json
// @Param code query string true "授权码"
// @Param state query string true "安全校验码"
// @Param shop query string true "店铺域名"
// @Param hmac query string true "查询串签名"
// @Success 302 {string} string "重定向到前端并携带 token"
// @Failure 401 {object} map[string]string "签名/state 校验失败"
// @Router /api/auth/shopify/callback [get]
func (ctrl *AuthController) Callback(c *gin.Context) {
	token, err := ctrl.authService.HandleCallback(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		// 前端兜底页展示错误，不暴露内部细节
		ctrl.redirectFrontend(c, url.Values{"error": {"install_failed"}})
		return
	}

	ctrl.redirectFrontend(c, url.Values{"token": {token}})
}

func (ctrl *AuthController) redirectFrontend(c *gin.Context, params url.Values) {
	target := ctrl.cfg.Server.FrontendURL + "/auth/callback?" + params.Encode()
	c.Redirect(http.StatusFound, target)
}
