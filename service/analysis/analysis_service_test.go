/*
 * @module service/analysis/analysis_service_test
 * @description 分析编排服务集成测试
 * @architecture 测试层 - gorm sqlite 端到端验证
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 数据集输入 -> 编排运行 -> 报告/趋势/事件落盘断言
 * @rules 验证持久化链路、匿名快照旁路和取消时不落盘
 * @dependencies testing, testify, gorm sqlite
 * @refs analysis_service.go
 */

package analysis

import (
	"context"
	"testing"
	"time"

	"quality-service/service/alerting"
	"quality-service/service/models"
	"quality-service/service/quality"
	"quality-service/service/trend"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.QualityTrendPoint{},
		&models.QualityReport{},
		&models.AlertRule{},
		&models.AlertEvent{},
	))

	svc := NewService(
		quality.NewEngine(nil),
		trend.NewTracker(trend.NewGormStore(db), 0),
		alerting.NewEvaluator(nil),
		alerting.NewRuleStore(db),
		alerting.NewEventStore(db),
		db,
	)
	return svc, db
}

func dirtyDataset(id string) *models.Dataset {
	return &models.Dataset{
		ID:   id,
		Name: "用户数据集",
		Columns: []models.ColumnDef{
			{Name: "user_id", DeclaredType: models.ColumnTypeNumeric},
			{Name: "age", DeclaredType: models.ColumnTypeNumeric},
		},
		Records: []map[string]interface{}{
			{"user_id": 1, "age": 30},
			{"user_id": 1, "age": -5},
			{"user_id": 2, "age": nil},
		},
	}
}

func TestRunPersistsReportTrendAndEvents(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	rule := models.AlertRule{
		Name:              "高危问题告警",
		AlertType:         models.AlertTypeAll,
		SeverityThreshold: models.SeverityHigh,
		CooldownMinutes:   60,
		Channels:          pq.StringArray{models.ChannelEmail},
		IsEnabled:         true,
	}
	require.NoError(t, db.Create(&rule).Error)

	result, err := svc.Run(context.Background(), dirtyDataset("ds-users"), now)
	require.NoError(t, err)
	require.NotNil(t, result.Analysis)
	// 标识重复与年龄越界均为 high，必然触发告警
	require.Len(t, result.Events, 1)
	assert.Equal(t, "ds-users", result.Events[0].DatasetID)

	var reportCount int64
	require.NoError(t, db.Model(&models.QualityReport{}).Count(&reportCount).Error)
	assert.Equal(t, int64(1), reportCount)

	var pointCount int64
	require.NoError(t, db.Model(&models.QualityTrendPoint{}).
		Where("dataset_id = ?", "ds-users").Count(&pointCount).Error)
	assert.Equal(t, int64(1), pointCount)

	var eventCount int64
	require.NoError(t, db.Model(&models.AlertEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount)

	// 触发时间已回写到规则
	var stored models.AlertRule
	require.NoError(t, db.First(&stored, "id = ?", rule.ID).Error)
	require.NotNil(t, stored.LastFiredAt)
	assert.WithinDuration(t, now, *stored.LastFiredAt, time.Second)

	// 冷却期内的第二次运行分析照常但不产生新事件
	result, err = svc.Run(context.Background(), dirtyDataset("ds-users"), now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, result.Events)

	require.NoError(t, db.Model(&models.AlertEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount)
}

func TestRunAnonymousSnapshotSkipsPersistence(t *testing.T) {
	svc, db := newTestService(t)

	result, err := svc.Run(context.Background(), dirtyDataset(""), time.Now())
	require.NoError(t, err)
	require.NotNil(t, result.Analysis)
	assert.Empty(t, result.Events)

	var reportCount, pointCount int64
	require.NoError(t, db.Model(&models.QualityReport{}).Count(&reportCount).Error)
	require.NoError(t, db.Model(&models.QualityTrendPoint{}).Count(&pointCount).Error)
	assert.Zero(t, reportCount)
	assert.Zero(t, pointCount)
}

func TestRunCancelledWritesNothing(t *testing.T) {
	svc, db := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Run(ctx, dirtyDataset("ds-users"), time.Now())
	require.Error(t, err)
	assert.Nil(t, result)

	var reportCount, pointCount int64
	require.NoError(t, db.Model(&models.QualityReport{}).Count(&reportCount).Error)
	require.NoError(t, db.Model(&models.QualityTrendPoint{}).Count(&pointCount).Error)
	assert.Zero(t, reportCount)
	assert.Zero(t, pointCount)
}

func TestListReports(t *testing.T) {
	svc, _ := newTestService(t)
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := svc.Run(context.Background(), dirtyDataset("ds-users"), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	reports, total, err := svc.ListReports("ds-users", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, reports, 2)
	// 按分析时间倒序
	assert.True(t, reports[0].AnalyzedAt.After(reports[1].AnalyzedAt))
}
