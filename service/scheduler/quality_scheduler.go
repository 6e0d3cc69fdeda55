/*
 * @module service/scheduler/quality_scheduler
 * @description 质量扫描调度器，按cron表达式周期性重新分析已注册的数据集快照源
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/quality_scheduler_req.md
 * @stateFlow 启动调度器 -> 注册数据集源 -> 定时触发 -> 加锁执行 -> 超时/取消丢弃部分结果
 * @rules 多实例部署下同一数据集的定时扫描由分布式锁防重；扫描有超时上限
 * @dependencies github.com/robfig/cron/v3, quality-service/service/distributed_lock
 * @refs service/analysis/analysis_service.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quality-service/service/analysis"
	"quality-service/service/distributed_lock"
	"quality-service/service/models"

	"github.com/robfig/cron/v3"
)

// DefaultScanTimeout 单次定时扫描的超时上限
const DefaultScanTimeout = 5 * time.Minute

// DatasetProvider 数据集快照源
// 引擎不负责采集，调度器在触发时向快照源索取当前快照
type DatasetProvider interface {
	DatasetID() string
	Fetch(ctx context.Context) (*models.Dataset, error)
}

// QualityScheduler 质量扫描调度器
type QualityScheduler struct {
	service  *analysis.Service
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	lock     distributed_lock.DistributedLock
	timeout  time.Duration
	started  bool
	mu       sync.Mutex
	entryIDs map[string]cron.EntryID // 数据集ID -> cron条目
}

// NewQualityScheduler 创建质量扫描调度器
func NewQualityScheduler(service *analysis.Service) *QualityScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &QualityScheduler{
		service:  service,
		cron:     cron.New(cron.WithSeconds()),
		ctx:      ctx,
		cancel:   cancel,
		lock:     distributed_lock.NoopLock{},
		timeout:  DefaultScanTimeout,
		entryIDs: make(map[string]cron.EntryID),
	}
}

// SetDistributedLock 设置分布式锁
func (qs *QualityScheduler) SetDistributedLock(lock distributed_lock.DistributedLock) {
	if lock != nil {
		qs.lock = lock
		slog.Info("质量扫描调度器已启用分布式锁")
	}
}

// SetScanTimeout 设置单次扫描超时
func (qs *QualityScheduler) SetScanTimeout(timeout time.Duration) {
	if timeout > 0 {
		qs.timeout = timeout
	}
}

// Register 注册一个数据集快照源
func (qs *QualityScheduler) Register(provider DatasetProvider, cronExpression string) error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	datasetID := provider.DatasetID()
	if datasetID == "" {
		return fmt.Errorf("数据集源未提供标识")
	}
	if cronExpression == "" {
		return fmt.Errorf("数据集 %s 缺少cron表达式", datasetID)
	}
	if _, exists := qs.entryIDs[datasetID]; exists {
		return fmt.Errorf("数据集 %s 已注册", datasetID)
	}

	entryID, err := qs.cron.AddFunc(cronExpression, func() {
		qs.runScan(provider)
	})
	if err != nil {
		return fmt.Errorf("添加定时扫描失败: %w", err)
	}
	qs.entryIDs[datasetID] = entryID

	slog.Info("注册定时质量扫描", "dataset_id", datasetID, "cron", cronExpression)
	return nil
}

// Unregister 注销数据集快照源
func (qs *QualityScheduler) Unregister(datasetID string) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	if entryID, exists := qs.entryIDs[datasetID]; exists {
		qs.cron.Remove(entryID)
		delete(qs.entryIDs, datasetID)
		slog.Info("注销定时质量扫描", "dataset_id", datasetID)
	}
}

// StartScheduler 启动调度器
func (qs *QualityScheduler) StartScheduler() error {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	if qs.started {
		return fmt.Errorf("调度器已经启动")
	}

	slog.Info("启动质量扫描调度器")
	qs.cron.Start()
	qs.started = true
	return nil
}

// StopScheduler 停止调度器
func (qs *QualityScheduler) StopScheduler() {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	if !qs.started {
		return
	}

	slog.Info("停止质量扫描调度器")
	qs.cancel()
	qs.cron.Stop()
	qs.started = false
}

// runScan 执行一次定时扫描
// 先抢分布式锁防止多实例重复扫描；超时或取消的扫描丢弃部分结果
func (qs *QualityScheduler) runScan(provider DatasetProvider) {
	datasetID := provider.DatasetID()

	ctx, cancel := context.WithTimeout(qs.ctx, qs.timeout)
	defer cancel()

	acquired, err := qs.lock.TryLock(ctx, datasetID, qs.timeout)
	if err != nil {
		slog.Error("获取扫描锁失败", "dataset_id", datasetID, "error", err)
		return
	}
	if !acquired {
		slog.Debug("扫描锁被其他实例持有，跳过本次扫描", "dataset_id", datasetID)
		return
	}
	defer func() {
		if err := qs.lock.Unlock(context.Background(), datasetID); err != nil {
			slog.Warn("释放扫描锁失败", "dataset_id", datasetID, "error", err)
		}
	}()

	ds, err := provider.Fetch(ctx)
	if err != nil {
		slog.Error("获取数据集快照失败", "dataset_id", datasetID, "error", err)
		return
	}
	if ds.ID == "" {
		ds.ID = datasetID
	}

	startTime := time.Now()
	result, err := qs.service.Run(ctx, ds, time.Now())
	if err != nil {
		slog.Error("定时质量扫描失败", "dataset_id", datasetID, "error", err)
		return
	}

	slog.Info("定时质量扫描完成",
		"dataset_id", datasetID,
		"overall_score", result.Analysis.Score.Overall,
		"issue_count", len(result.Analysis.Issues),
		"alert_count", len(result.Events),
		"duration", time.Since(startTime))
}
