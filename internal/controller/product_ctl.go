package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopify_ai_dev_v1_202601/internal/middleware"
	"shopify_ai_dev_v1_202601/internal/service"
)

type ProductController struct {
	productService *service.ProductService
	aiService      *service.AIService
}

func NewProductController(p *service.ProductService, a *service.AIService) *ProductController {
	return &ProductController{productService: p, aiService: a}
}

// GetProducts
// @Summary 获取当前用户店铺的商品列表
// @Description 按更新时间倒序返回商品及变体
// @Tags Product (商品模块)
// @Produce json
// @Success 200 {object} map[string]interface{} "商品列表"
// @Failure 400 {object} map[string]string "未绑定店铺"
// @Router /api/products [get]
// @Security BearerAuth
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	products, err := ctrl.productService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "获取成功",
		"products": products,
		"count":    len(products),
	})
}

// GetProduct
// @Summary 获取单个商品详情
// @Description 含变体和历史生成记录，只能访问本店铺的商品
// @Tags Product (商品模块)
// @Produce json
// @Param id path int true "商品 ID (数据库主键)"
// @Success 200 {object} map[string]interface{} "商品详情"
// @Failure 404 {object} map[string]string "商品不存在"
// @Router /api/products/:id [get]
// @Security BearerAuth
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	userID, productID, ok := ctrl.pathIDs(c)
	if !ok {
		return
	}

	product, err := ctrl.productService.GetForUser(c.Request.Context(), userID, productID)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取成功",
		"product": product,
	})
}

// GenerateDescription
// @Summary AI 生成商品描述
// @Description 按商品信息和可选的语气/语言/受众生成描述，每次成功调用都会留审计记录
// @Tags Product (商品模块)
// @Accept json
// @Produce json
// @Param id path int true "商品 ID (数据库主键)"
// @Param body body service.DescriptionParams false "生成参数"
// @Success 200 {object} map[string]interface{} "生成结果"
// @Failure 502 {object} map[string]string "AI 服务异常"
// @Router /api/products/:id/generate-description [post]
// @Security BearerAuth
func (ctrl *ProductController) GenerateDescription(c *gin.Context) {
	userID, productID, ok := ctrl.pathIDs(c)
	if !ok {
		return
	}

	// 请求体可以整体省略，全部用默认参数
	var params service.DescriptionParams
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误", "detail": err.Error()})
		return
	}

	product, err := ctrl.productService.GetForUser(c.Request.Context(), userID, productID)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}

	// 价格取第一个变体，与商品列表展示一致
	price := ""
	if len(product.Variants) > 0 {
		price = product.Variants[0].Price.String()
	}

	result, err := ctrl.aiService.GenerateDescription(c.Request.Context(), product, price, params)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "生成成功",
		"result":  result,
	})
}

// GenerateAd
// @Summary AI 生成广告文案
// @Description 按商品信息和投放平台生成广告文案，每次成功调用都会留审计记录
// @Tags Product (商品模块)
// @Accept json
// @Produce json
// @Param id path int true "商品 ID (数据库主键)"
// @Param body body service.AdCopyParams false "生成参数"
// @Success 200 {object} map[string]interface{} "生成结果"
// @Failure 502 {object} map[string]string "AI 服务异常"
// @Router /api/products/:id/generate-ad [post]
// @Security BearerAuth
func (ctrl *ProductController) GenerateAd(c *gin.Context) {
	userID, productID, ok := ctrl.pathIDs(c)
	if !ok {
		return
	}

	var params service.AdCopyParams
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误", "detail": err.Error()})
		return
	}

	product, err := ctrl.productService.GetForUser(c.Request.Context(), userID, productID)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}

	result, err := ctrl.aiService.GenerateAdCopy(c.Request.Context(), product, params)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "生成成功",
		"result":  result,
	})
}

// PushDescription
// @Summary 将描述回写到 Shopify
// @Description 先远端更新成功，再更新本地镜像；远端失败本地不动
// @Tags Product (商品模块)
// @Accept json
// @Produce json
// @Param id path int true "商品 ID (数据库主键)"
// @Param body body object true "description"
// @Success 200 {object} map[string]string "回写成功"
// @Failure 502 {object} map[string]string "远端更新失败"
// @Router /api/products/:id/push-description [post]
// @Security BearerAuth
func (ctrl *ProductController) PushDescription(c *gin.Context) {
	userID, productID, ok := ctrl.pathIDs(c)
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误", "detail": err.Error()})
		return
	}

	if err := ctrl.productService.PushDescription(c.Request.Context(), userID, productID, req.Description); err != nil {
		ctrl.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "回写成功"})
}

// pathIDs 解析会话用户和路径商品 ID，失败时已写响应
func (ctrl *ProductController) pathIDs(c *gin.Context) (userID, productID int64, ok bool) {
	userID = middleware.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return 0, 0, false
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id 必须是数字"})
		return 0, 0, false
	}
	return userID, productID, true
}

// renderError 按错误类别映射状态码
func (ctrl *ProductController) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShopNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrShopInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGenerationParse), errors.Is(err, service.ErrWriteBack):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误", "detail": err.Error()})
	}
}
