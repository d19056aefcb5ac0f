package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify_ai_dev_v1_202601/internal/config"
	"shopify_ai_dev_v1_202601/internal/controller"
	"shopify_ai_dev_v1_202601/internal/middleware"
	"shopify_ai_dev_v1_202601/internal/model"
	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/internal/router"
	"shopify_ai_dev_v1_202601/internal/service"
	"shopify_ai_dev_v1_202601/internal/task"
	"shopify_ai_dev_v1_202601/pkg/database"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 2. 初始化日志
	logger := initLogger()
	defer logger.Sync()

	// 3. 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatalf("数据库初始化失败: %v", err)
	}

	// 4. 初始化依赖
	deps := initDependencies(cfg, db, logger)

	// 5. 启动定时任务（cron 表达式留空则不启动）
	if cfg.Sync.RefreshCron != "" {
		if err := deps.RefreshTask.Start(); err != nil {
			logger.Fatalf("定时任务启动失败: %v", err)
		}
		defer deps.RefreshTask.Stop()
	}

	// 6. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.JWT, deps.Controllers)

	// 7. 启动服务
	startServer(cfg, r, logger)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	JWT         *middleware.JWTManager
	SyncRunner  *task.SyncRunner
	RefreshTask *task.CatalogRefreshTask
	Controllers router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Shop       repository.ShopRepository
	User       repository.UserRepository
	Product    repository.ProductRepository
	Generation repository.GenerationRepository
	WebhookLog repository.WebhookLogRepository
}

// Services 服务集合
type Services struct {
	Signature *service.SignatureVerifier
	Shopify   *service.ShopifyService
	Sync      *service.SyncService
	Auth      *service.AuthService
	Product   *service.ProductService
	AI        *service.AIService
}

// ==================== 初始化函数 ====================

// initLogger 初始化日志
func initLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	return logger.Sugar()
}

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	return database.InitDB(
		cfg.Database.DSN,
		// Account
		&model.SysUser{},
		// Shop
		&model.Shop{},
		// Product
		&model.Product{}, &model.ProductVariant{},
		// AI
		&model.AiGeneration{},
		// Webhook
		&model.WebhookLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, logger *zap.SugaredLogger) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Shop:       repository.NewShopRepository(db),
		User:       repository.NewUserRepository(db),
		Product:    repository.NewProductRepository(db),
		Generation: repository.NewGenerationRepository(db),
		WebhookLog: repository.NewWebhookLogRepository(db),
	}

	// -------- 基础组件 --------
	jwtManager := middleware.NewJWTManager(cfg.JWT)
	verifier := service.NewSignatureVerifier(cfg.Shopify.ApiSecret)
	shopifySvc := service.NewShopifyService(cfg.Shopify, cfg.Server.Host, logger)

	// -------- 业务服务 --------
	services := &Services{
		Signature: verifier,
		Shopify:   shopifySvc,
		AI:        service.NewAIService(cfg.AI, repos.Generation, logger),
	}
	services.Sync = service.NewSyncService(repos.Product, repos.Shop, shopifySvc, cfg.Sync.PageSize, logger)
	services.Product = service.NewProductService(repos.Product, repos.User, repos.Shop, shopifySvc, logger)

	// -------- 后台任务 --------
	syncRunner := task.NewSyncRunner(services.Sync, repos.Shop, logger)
	refreshTask := task.NewCatalogRefreshTask(services.Sync, repos.Shop, cfg.Sync.RefreshCron, logger)

	services.Auth = service.NewAuthService(
		*cfg, repos.Shop, repos.User,
		shopifySvc, verifier, jwtManager, syncRunner, logger,
	)

	// -------- Controller 层 --------
	controllers := router.Controllers{
		Auth:    controller.NewAuthController(cfg, services.Auth),
		Webhook: controller.NewWebhookController(verifier, services.Sync, repos.Shop, repos.WebhookLog, logger),
		Product: controller.NewProductController(services.Product, services.AI),
		Sync:    controller.NewSyncController(syncRunner, repos.User),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		JWT:         jwtManager,
		SyncRunner:  syncRunner,
		RefreshTask: refreshTask,
		Controllers: controllers,
	}
}

// startServer 启动 HTTP 服务并优雅退出
func startServer(cfg *config.Config, handler http.Handler, logger *zap.SugaredLogger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}

	go func() {
		logger.Infof("服务启动，监听 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("服务异常退出: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("收到退出信号，准备关闭")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("关闭超时: %v", err)
	}
	logger.Info("服务已退出")
}
