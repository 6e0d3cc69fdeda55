/*
 * @module service/trend/tracker_test
 * @description 质量趋势跟踪器单元测试
 * @architecture 测试层 - 内存存储 + gorm sqlite 双实现验证
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 追加趋势点 -> 方向分类 / 窗口对比 -> 结果断言
 * @rules 覆盖仅追加约束、时间戳单调性、并发串行化和方向阈值
 * @dependencies testing, testify, gorm sqlite
 * @refs tracker.go
 */

package trend

import (
	"sync"
	"testing"
	"time"

	"quality-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func scoreOf(overall float64) *models.QualityScore {
	return &models.QualityScore{
		Completeness: overall, Consistency: overall, Accuracy: overall,
		Uniqueness: overall, Timeliness: overall, Overall: overall,
	}
}

func appendSeries(t *testing.T, tracker *Tracker, datasetID string, base time.Time, overalls []float64) {
	t.Helper()
	for i, overall := range overalls {
		_, err := tracker.AppendPoint(datasetID, scoreOf(overall), 0, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
}

func TestDirectionClassification(t *testing.T) {
	testCases := []struct {
		name     string
		overalls []float64
		want     string
	}{
		{name: "持续上升", overalls: []float64{80, 81, 83, 90}, want: models.TrendUp},
		{name: "持续下降", overalls: []float64{90, 85, 82, 70}, want: models.TrendDown},
		{name: "波动在阈值内", overalls: []float64{80, 83, 78, 81}, want: models.TrendStable},
		{name: "恰好等于阈值视为平稳", overalls: []float64{80, 82}, want: models.TrendStable},
		{name: "单点视为平稳", overalls: []float64{80}, want: models.TrendStable},
		{name: "无数据视为平稳", overalls: []float64{}, want: models.TrendStable},
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewTracker(NewMemoryStore(), 0)
			appendSeries(t, tracker, "ds-1", base, tc.overalls)

			direction, err := tracker.Direction("ds-1", 10)
			require.NoError(t, err)
			assert.Equal(t, tc.want, direction)
		})
	}
}

func TestDirectionUsesWindowBoundary(t *testing.T) {
	// 早期低分在窗口之外，方向只看最近 window 个点
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tracker := NewTracker(NewMemoryStore(), 0)
	appendSeries(t, tracker, "ds-1", base, []float64{40, 85, 84, 85, 84})

	direction, err := tracker.Direction("ds-1", 4)
	require.NoError(t, err)
	assert.Equal(t, models.TrendStable, direction)
}

func TestAppendPointValidation(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), 0)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := tracker.AppendPoint("", scoreOf(80), 0, now)
	assert.Error(t, err)

	_, err = tracker.AppendPoint("ds-1", nil, 0, now)
	assert.Error(t, err)
}

func TestAppendPointRejectsOutOfOrder(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), 0)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := tracker.AppendPoint("ds-1", scoreOf(80), 1, now)
	require.NoError(t, err)

	// 更早的时间戳被拒绝
	_, err = tracker.AppendPoint("ds-1", scoreOf(85), 1, now.Add(-time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "乱序")

	// 相同时间戳同样被拒绝
	_, err = tracker.AppendPoint("ds-1", scoreOf(85), 1, now)
	require.Error(t, err)

	// 不同数据集互不影响
	_, err = tracker.AppendPoint("ds-2", scoreOf(85), 1, now.Add(-time.Hour))
	require.NoError(t, err)

	history, err := tracker.History("ds-1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestConcurrentAppendSerialized(t *testing.T) {
	// 并发写同一时间戳时串行化检查保证只有一次追加成功
	tracker := NewTracker(NewMemoryStore(), 0)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tracker.AppendPoint("ds-1", scoreOf(80), 0, now); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	history, err := tracker.History("ds-1", 100)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCompareWindows(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour
	tracker := NewTracker(NewMemoryStore(), 0)

	// 前窗 3 个问题，近窗 12 个问题
	points := []struct {
		offset time.Duration
		issues int
	}{
		{offset: -13 * 24 * time.Hour, issues: 1},
		{offset: -10 * 24 * time.Hour, issues: 2},
		{offset: -5 * 24 * time.Hour, issues: 5},
		{offset: -2 * 24 * time.Hour, issues: 7},
	}
	for _, p := range points {
		_, err := tracker.AppendPoint("ds-1", scoreOf(80), p.issues, now.Add(p.offset))
		require.NoError(t, err)
	}

	comparison, err := tracker.CompareWindows("ds-1", window, now)
	require.NoError(t, err)
	assert.Equal(t, 12, comparison.RecentCount)
	assert.Equal(t, 3, comparison.PreviousCount)
	assert.Equal(t, models.TrendUp, comparison.Direction)
}

func TestCompareWindowsEmpty(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), 0)
	comparison, err := tracker.CompareWindows("ds-missing", 7*24*time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, comparison.RecentCount)
	assert.Equal(t, 0, comparison.PreviousCount)
	assert.Equal(t, models.TrendStable, comparison.Direction)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.QualityTrendPoint{}))
	return db
}

func TestGormStore(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	latest, err := store.Latest("ds-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i, overall := range []float64{70, 75, 80} {
		err := store.Append(&models.QualityTrendPoint{
			DatasetID:  "ds-1",
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			Overall:    overall,
			IssueCount: i,
		})
		require.NoError(t, err)
	}

	latest, err = store.Latest("ds-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.InDelta(t, 80.0, latest.Overall, 1e-9)

	recent, err := store.ListRecent("ds-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// 升序返回
	assert.InDelta(t, 75.0, recent[0].Overall, 1e-9)
	assert.InDelta(t, 80.0, recent[1].Overall, 1e-9)

	since, err := store.ListSince("ds-1", base)
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestTrackerWithGormStore(t *testing.T) {
	tracker := NewTracker(NewGormStore(newTestDB(t)), 0)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	appendSeries(t, tracker, "ds-1", base, []float64{80, 81, 83, 90})

	direction, err := tracker.Direction("ds-1", 10)
	require.NoError(t, err)
	assert.Equal(t, models.TrendUp, direction)

	// 落库后的乱序追加同样被拒绝
	_, err = tracker.AppendPoint("ds-1", scoreOf(70), 0, base)
	assert.Error(t, err)
}
