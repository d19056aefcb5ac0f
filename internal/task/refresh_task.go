package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/internal/service"
)

// ==================== CatalogRefreshTask 目录刷新任务 ====================

// CatalogRefreshTask 定时对所有已连接店铺做全量同步
// 兜底修正漏掉的 webhook 带来的目录偏差
type CatalogRefreshTask struct {
	syncSvc  *service.SyncService
	shopRepo repository.ShopRepository
	cron     *cron.Cron
	spec     string
	log      *zap.SugaredLogger

	// 并发控制
	concurrencyLimit int
}

// NewCatalogRefreshTask 创建目录刷新任务
func NewCatalogRefreshTask(syncSvc *service.SyncService, shopRepo repository.ShopRepository, spec string, log *zap.SugaredLogger) *CatalogRefreshTask {
	return &CatalogRefreshTask{
		syncSvc:          syncSvc,
		shopRepo:         shopRepo,
		cron:             cron.New(cron.WithSeconds()),
		spec:             spec,
		log:              log,
		concurrencyLimit: 3, // 同时刷新的店铺数上限
	}
}

// Start 启动定时任务
func (t *CatalogRefreshTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		t.execute(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.log.Infow("目录刷新任务已启动", "cron", t.spec)
	return nil
}

// Stop 停止任务，等待在跑的批次结束
func (t *CatalogRefreshTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.log.Info("目录刷新任务已停止")
}

// execute 执行一轮刷新
func (t *CatalogRefreshTask) execute(ctx context.Context) {
	shops, err := t.shopRepo.ListActive(ctx)
	if err != nil {
		t.log.Errorw("查询活跃店铺失败", "err", err)
		return
	}
	if len(shops) == 0 {
		return
	}

	t.log.Infow("开始目录刷新", "shops", len(shops))

	// 信号量控制并发
	sem := make(chan struct{}, t.concurrencyLimit)
	for i := range shops {
		shop := &shops[i]
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			t.log.Warnw("目录刷新超时中断", "remaining", len(shops)-i)
			return
		}

		go func() {
			defer func() { <-sem }()
			applied, failed, err := t.syncSvc.FullSync(ctx, shop)
			if err != nil {
				t.log.Errorw("店铺刷新失败", "shop", shop.ShopDomain, "err", err)
				return
			}
			t.log.Infow("店铺刷新完成", "shop", shop.ShopDomain, "applied", applied, "failed", failed)
		}()
	}

	// 等所有协程归还信号量
	for i := 0; i < t.concurrencyLimit; i++ {
		sem <- struct{}{}
	}
}
