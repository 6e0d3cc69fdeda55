/*
 * @module service/trend/tracker
 * @description 质量趋势跟踪器，维护按时间有序、仅追加的质量快照序列，并提供方向分类与时间窗对比
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 分析完成 -> 按数据集串行化追加 -> 方向分类 / 窗口对比
 * @rules 同一数据集的追加操作串行执行，时间戳单调递增，写入后不再修改
 * @dependencies quality-service/service/models, gorm.io/gorm
 * @refs service/quality/engine.go, service/models/trend_models.go
 */

package trend

import (
	"fmt"
	"sync"
	"time"

	"quality-service/service/models"

	"gorm.io/gorm"
)

// DefaultEpsilon 方向分类的默认阈值，总分差的绝对值超过该值才视为趋势变化
const DefaultEpsilon = 2.0

// Store 趋势点存储接口
type Store interface {
	// Append 追加一个趋势点
	Append(point *models.QualityTrendPoint) error
	// Latest 返回数据集最新的趋势点，无记录时返回 nil
	Latest(datasetID string) (*models.QualityTrendPoint, error)
	// ListSince 按时间升序返回数据集在 since 之后的趋势点
	ListSince(datasetID string, since time.Time) ([]models.QualityTrendPoint, error)
	// ListRecent 按时间升序返回数据集最近的 limit 个趋势点
	ListRecent(datasetID string, limit int) ([]models.QualityTrendPoint, error)
}

// Tracker 质量趋势跟踪器
type Tracker struct {
	store   Store
	epsilon float64

	mu    sync.Mutex
	locks map[string]*sync.Mutex // 数据集级追加锁
}

// NewTracker 创建趋势跟踪器实例
func NewTracker(store Store, epsilon float64) *Tracker {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Tracker{
		store:   store,
		epsilon: epsilon,
		locks:   make(map[string]*sync.Mutex),
	}
}

// datasetLock 取得数据集级别的追加锁
func (t *Tracker) datasetLock(datasetID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, exists := t.locks[datasetID]
	if !exists {
		lock = &sync.Mutex{}
		t.locks[datasetID] = lock
	}
	return lock
}

// AppendPoint 追加一个质量趋势快照
// 同一数据集的并发追加被串行化；时间戳早于已有最新点的追加被拒绝，防止乱序快照
func (t *Tracker) AppendPoint(datasetID string, score *models.QualityScore, issueCount int, timestamp time.Time) (*models.QualityTrendPoint, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("数据集标识不能为空")
	}
	if score == nil {
		return nil, fmt.Errorf("质量评分不能为空")
	}

	lock := t.datasetLock(datasetID)
	lock.Lock()
	defer lock.Unlock()

	latest, err := t.store.Latest(datasetID)
	if err != nil {
		return nil, fmt.Errorf("查询最新趋势点失败: %w", err)
	}
	if latest != nil && !timestamp.After(latest.Timestamp) {
		return nil, fmt.Errorf("趋势点时间戳 %s 不晚于已有最新点 %s，拒绝乱序追加",
			timestamp.Format(time.RFC3339), latest.Timestamp.Format(time.RFC3339))
	}

	point := &models.QualityTrendPoint{
		DatasetID:    datasetID,
		Timestamp:    timestamp,
		Completeness: score.Completeness,
		Consistency:  score.Consistency,
		Accuracy:     score.Accuracy,
		Uniqueness:   score.Uniqueness,
		Timeliness:   score.Timeliness,
		Overall:      score.Overall,
		IssueCount:   issueCount,
	}
	if err := t.store.Append(point); err != nil {
		return nil, fmt.Errorf("追加趋势点失败: %w", err)
	}
	return point, nil
}

// Direction 对数据集最近 window 个趋势点做方向分类
func (t *Tracker) Direction(datasetID string, window int) (string, error) {
	if window <= 0 {
		window = 10
	}
	points, err := t.store.ListRecent(datasetID, window)
	if err != nil {
		return "", fmt.Errorf("查询趋势点失败: %w", err)
	}
	return t.ClassifyDirection(points), nil
}

// ClassifyDirection 按窗口首尾总分差分类方向
// 差值超过 +epsilon 为 up，低于 -epsilon 为 down，否则 stable
func (t *Tracker) ClassifyDirection(points []models.QualityTrendPoint) string {
	if len(points) < 2 {
		return models.TrendStable
	}
	diff := points[len(points)-1].Overall - points[0].Overall
	switch {
	case diff > t.epsilon:
		return models.TrendUp
	case diff < -t.epsilon:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// WindowComparison 时间窗对比结果
type WindowComparison struct {
	RecentCount   int    `json:"recent_count"`
	PreviousCount int    `json:"previous_count"`
	Direction     string `json:"direction"`
}

// CompareWindows 对比最近一个时间窗与其前一个时间窗内的问题量
// 采用与方向分类相同的差值对阈值策略
func (t *Tracker) CompareWindows(datasetID string, window time.Duration, now time.Time) (*WindowComparison, error) {
	points, err := t.store.ListSince(datasetID, now.Add(-2*window))
	if err != nil {
		return nil, fmt.Errorf("查询趋势点失败: %w", err)
	}

	boundary := now.Add(-window)
	comparison := &WindowComparison{}
	for _, p := range points {
		if p.Timestamp.After(boundary) {
			comparison.RecentCount += p.IssueCount
		} else {
			comparison.PreviousCount += p.IssueCount
		}
	}

	diff := float64(comparison.RecentCount - comparison.PreviousCount)
	switch {
	case diff > t.epsilon:
		comparison.Direction = models.TrendUp
	case diff < -t.epsilon:
		comparison.Direction = models.TrendDown
	default:
		comparison.Direction = models.TrendStable
	}
	return comparison, nil
}

// History 按时间升序返回数据集的趋势历史
func (t *Tracker) History(datasetID string, limit int) ([]models.QualityTrendPoint, error) {
	if limit <= 0 {
		limit = 100
	}
	return t.store.ListRecent(datasetID, limit)
}

// GormStore 基于 gorm 的趋势点存储实现
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 gorm 趋势点存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append 追加一个趋势点
func (s *GormStore) Append(point *models.QualityTrendPoint) error {
	return s.db.Create(point).Error
}

// Latest 返回数据集最新的趋势点
func (s *GormStore) Latest(datasetID string) (*models.QualityTrendPoint, error) {
	var point models.QualityTrendPoint
	err := s.db.Where("dataset_id = ?", datasetID).
		Order("timestamp DESC").First(&point).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &point, nil
}

// ListSince 按时间升序返回 since 之后的趋势点
func (s *GormStore) ListSince(datasetID string, since time.Time) ([]models.QualityTrendPoint, error) {
	var points []models.QualityTrendPoint
	err := s.db.Where("dataset_id = ? AND timestamp > ?", datasetID, since).
		Order("timestamp ASC").Find(&points).Error
	return points, err
}

// ListRecent 按时间升序返回最近的 limit 个趋势点
func (s *GormStore) ListRecent(datasetID string, limit int) ([]models.QualityTrendPoint, error) {
	var points []models.QualityTrendPoint
	err := s.db.Where("dataset_id = ?", datasetID).
		Order("timestamp DESC").Limit(limit).Find(&points).Error
	if err != nil {
		return nil, err
	}
	// 反转为时间升序
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// MemoryStore 内存趋势点存储，用于测试和无数据库场景
type MemoryStore struct {
	mu     sync.RWMutex
	points map[string][]models.QualityTrendPoint
}

// NewMemoryStore 创建内存趋势点存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string][]models.QualityTrendPoint)}
}

// Append 追加一个趋势点
func (s *MemoryStore) Append(point *models.QualityTrendPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[point.DatasetID] = append(s.points[point.DatasetID], *point)
	return nil
}

// Latest 返回数据集最新的趋势点
func (s *MemoryStore) Latest(datasetID string) (*models.QualityTrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := s.points[datasetID]
	if len(points) == 0 {
		return nil, nil
	}
	latest := points[len(points)-1]
	return &latest, nil
}

// ListSince 按时间升序返回 since 之后的趋势点
func (s *MemoryStore) ListSince(datasetID string, since time.Time) ([]models.QualityTrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.QualityTrendPoint
	for _, p := range s.points[datasetID] {
		if p.Timestamp.After(since) {
			result = append(result, p)
		}
	}
	return result, nil
}

// ListRecent 按时间升序返回最近的 limit 个趋势点
func (s *MemoryStore) ListRecent(datasetID string, limit int) ([]models.QualityTrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := s.points[datasetID]
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	result := make([]models.QualityTrendPoint, len(points))
	copy(result, points)
	return result, nil
}
