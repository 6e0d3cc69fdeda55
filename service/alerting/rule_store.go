/*
 * @module service/alerting/rule_store
 * @description 告警规则与告警事件的存储访问层，基于 gorm 提供规则CRUD和事件追加查询
 * @architecture 分层架构 - 数据访问层
 * @documentReference ai_docs/quality_alert_req.md
 * @stateFlow 规则配置持久化 <-> 评估器读取；事件追加写入 -> 历史查询
 * @rules 事件日志仅追加；规则的 LastFiredAt 依据评估器返回的触发事件回写
 * @dependencies quality-service/service/models, gorm.io/gorm
 * @refs service/alerting/evaluator.go
 */

package alerting

import (
	"fmt"
	"time"

	"quality-service/service/models"

	"gorm.io/gorm"
)

// RuleStore 告警规则存储
type RuleStore struct {
	db *gorm.DB
}

// NewRuleStore 创建告警规则存储实例
func NewRuleStore(db *gorm.DB) *RuleStore {
	return &RuleStore{db: db}
}

// ListEnabled 返回全部启用的告警规则
func (s *RuleStore) ListEnabled() ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := s.db.Where("is_enabled = ?", true).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询启用告警规则失败: %w", err)
	}
	return rules, nil
}

// List 分页返回告警规则
func (s *RuleStore) List(page, size int) ([]models.AlertRule, int64, error) {
	var rules []models.AlertRule
	var total int64
	if err := s.db.Model(&models.AlertRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&rules).Error
	return rules, total, err
}

// Get 按ID查询告警规则
func (s *RuleStore) Get(id string) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := s.db.First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create 创建告警规则
func (s *RuleStore) Create(rule *models.AlertRule) error {
	return s.db.Create(rule).Error
}

// Update 更新告警规则
func (s *RuleStore) Update(rule *models.AlertRule) error {
	return s.db.Save(rule).Error
}

// Delete 删除告警规则
func (s *RuleStore) Delete(id string) error {
	return s.db.Delete(&models.AlertRule{}, "id = ?", id).Error
}

// MarkFired 将评估器上报的触发时间回写到规则
func (s *RuleStore) MarkFired(ruleID string, firedAt time.Time) error {
	return s.db.Model(&models.AlertRule{}).
		Where("id = ?", ruleID).
		Update("last_fired_at", firedAt).Error
}

// EventStore 告警事件日志存储，仅追加
type EventStore struct {
	db *gorm.DB
}

// NewEventStore 创建告警事件存储实例
func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

// Append 追加一条告警事件
func (s *EventStore) Append(event *models.AlertEvent) error {
	return s.db.Create(event).Error
}

// List 分页返回告警事件，可按规则筛选
func (s *EventStore) List(ruleID string, page, size int) ([]models.AlertEvent, int64, error) {
	query := s.db.Model(&models.AlertEvent{})
	if ruleID != "" {
		query = query.Where("rule_id = ?", ruleID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.AlertEvent
	err := query.Order("fired_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&events).Error
	return events, total, err
}
