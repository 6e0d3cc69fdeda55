/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新质量趋势、告警相关表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致
 * @dependencies quality-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log/slog"

	"quality-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	slog.Info("开始数据库迁移")

	err := db.AutoMigrate(
		&models.QualityTrendPoint{},
		&models.QualityReport{},
		&models.AlertRule{},
		&models.AlertEvent{},
	)
	if err != nil {
		return err
	}

	slog.Info("数据库迁移完成")
	return nil
}
