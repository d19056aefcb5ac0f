package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopify_ai_dev_v1_202601/internal/middleware"
	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/internal/service"
	"shopify_ai_dev_v1_202601/internal/task"
)

type SyncController struct {
	runner   *task.SyncRunner
	userRepo repository.UserRepository
}

func NewSyncController(runner *task.SyncRunner, userRepo repository.UserRepository) *SyncController {
	return &SyncController{runner: runner, userRepo: userRepo}
}

// Trigger
// @Summary 触发当前用户店铺的全量同步
// @Description 后台异步执行，立即返回；同店铺已有任务在跑时返回 409
// @Tags Sync (同步模块)
// @Produce json
// @Success 202 {object} map[string]string "已触发"
// @Failure 409 {object} map[string]string "任务已在执行"
// @Router /api/sync [post]
// @Security BearerAuth
func (ctrl *SyncController) Trigger(c *gin.Context) {
	domain, ok := ctrl.userShopDomain(c)
	if !ok {
		return
	}

	if err := ctrl.runner.Launch(domain); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "同步已触发",
		"shop":    domain,
	})
}

// Status
// @Summary 查询当前用户店铺的同步状态
// @Description 返回最近一次全量同步的状态记录
// @Tags Sync (同步模块)
// @Produce json
// @Success 200 {object} map[string]interface{} "状态记录"
// @Failure 404 {object} map[string]string "尚未同步过"
// @Router /api/sync/status [get]
// @Security BearerAuth
func (ctrl *SyncController) Status(c *gin.Context) {
	domain, ok := ctrl.userShopDomain(c)
	if !ok {
		return
	}

	state, found := ctrl.runner.Status(domain)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "尚未触发过同步"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取成功",
		"state":   state,
	})
}

// userShopDomain 解析会话用户绑定的店铺域名，失败时已写响应
func (ctrl *SyncController) userShopDomain(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return "", false
	}

	user, err := ctrl.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
		return "", false
	}
	if user.ShopID == nil || user.Shop == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrShopNotConnected.Error()})
		return "", false
	}
	return user.Shop.ShopDomain, true
}
