package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"shopify_ai_dev_v1_202601/internal/repository"
	"shopify_ai_dev_v1_202601/internal/service"
)

// ==================== 同步任务状态 ====================

// 任务状态常量
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncState 一次全量同步的状态记录
// 触发方不等结果，事后通过状态接口观察成败
type SyncState struct {
	Domain     string    `json:"domain"`
	Status     string    `json:"status"`
	Applied    int       `json:"applied"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// ==================== 同步执行器 ====================

// SyncRunner 后台全量同步的执行器
// 每个店铺同时最多一个在跑，重复触发直接拒绝；
// 状态记录按域名保留最近一次结果
type SyncRunner struct {
	syncSvc  *service.SyncService
	shopRepo repository.ShopRepository
	timeout  time.Duration
	log      *zap.SugaredLogger

	mu     sync.Mutex
	states map[string]*SyncState
}

// NewSyncRunner 创建执行器
func NewSyncRunner(syncSvc *service.SyncService, shopRepo repository.ShopRepository, log *zap.SugaredLogger) *SyncRunner {
	return &SyncRunner{
		syncSvc:  syncSvc,
		shopRepo: shopRepo,
		timeout:  10 * time.Minute,
		log:      log,
		states:   make(map[string]*SyncState),
	}
}

// Launch 启动一次后台全量同步，立即返回
// 同店铺已有任务在跑时拒绝
func (r *SyncRunner) Launch(domain string) error {
	r.mu.Lock()
	if st, ok := r.states[domain]; ok && st.Status == SyncStatusRunning {
		r.mu.Unlock()
		return fmt.Errorf("店铺 %s 的同步任务已在执行", domain)
	}
	state := &SyncState{
		Domain:    domain,
		Status:    SyncStatusRunning,
		StartedAt: time.Now(),
	}
	r.states[domain] = state
	r.mu.Unlock()

	go r.run(domain)
	return nil
}

// Status 查询某店铺最近一次同步的状态记录
func (r *SyncRunner) Status(domain string) (SyncState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[domain]; ok {
		return *st, true
	}
	return SyncState{}, false
}

// run 真正的同步过程，持有自己的超时上下文，与触发请求完全脱钩
func (r *SyncRunner) run(domain string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	applied, failed, err := r.sync(ctx, domain)

	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.states[domain]
	state.Applied = applied
	state.Failed = failed
	state.FinishedAt = time.Now()
	if err != nil {
		state.Status = SyncStatusFailed
		state.Error = err.Error()
		r.log.Errorw("后台全量同步失败", "shop", domain, "err", err)
		return
	}
	state.Status = SyncStatusSuccess
}

func (r *SyncRunner) sync(ctx context.Context, domain string) (int, int, error) {
	shop, err := r.shopRepo.GetByDomain(ctx, domain)
	if err != nil {
		return 0, 0, err
	}
	return r.syncSvc.FullSync(ctx, shop)
}
