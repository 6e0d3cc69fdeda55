/*
 * @module service/models/alert_models
 * @description 告警配置与告警事件模型，包含告警规则、告警事件及通知投递状态
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/quality_alert_req.md
 * @stateFlow 规则配置 -> 问题匹配 -> 冷却检查 -> 事件生成 -> 渠道投递
 * @rules 告警事件仅追加不修改；各渠道投递状态互相独立
 * @dependencies gorm.io/gorm, github.com/lib/pq, github.com/google/uuid
 * @refs service/alerting
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 告警类型通配符，匹配所有问题类别
const AlertTypeAll = "all"

// 通知渠道
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// 投递状态
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// AlertRule 告警规则模型
type AlertRule struct {
	ID                string         `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(100);not null" json:"name"`
	AlertType         string         `gorm:"type:varchar(30);not null" json:"alert_type"` // all 或具体问题类别
	SeverityThreshold string         `gorm:"type:varchar(20);not null;default:low" json:"severity_threshold"`
	CooldownMinutes   int            `gorm:"not null;default:60" json:"cooldown_minutes"`
	Channels          pq.StringArray `gorm:"type:text[]" json:"channels"` // email, webhook
	Thresholds        JSONB          `gorm:"type:jsonb" json:"thresholds,omitempty"`
	IsEnabled         bool           `gorm:"default:true" json:"is_enabled"`
	LastFiredAt       *time.Time     `json:"last_fired_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (AlertRule) TableName() string {
	return "quality_alert_rules"
}

// BeforeCreate 创建前钩子
func (r *AlertRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// AlertEvent 告警事件模型
// 由告警评估器产生，追加写入，核心逻辑不做修改和删除
type AlertEvent struct {
	ID             string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	RuleID         string    `gorm:"type:varchar(50);not null;index" json:"rule_id"`
	DatasetID      string    `gorm:"type:varchar(100);index" json:"dataset_id,omitempty"`
	FiredAt        time.Time `gorm:"not null;index" json:"fired_at"`
	Severity       string    `gorm:"type:varchar(20);not null" json:"severity"`
	Title          string    `gorm:"type:varchar(200)" json:"title"`
	Message        string    `gorm:"type:text" json:"message"`
	DeliveryStatus JSONB     `gorm:"type:jsonb" json:"delivery_status"` // 渠道 -> pending/sent/failed
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (AlertEvent) TableName() string {
	return "quality_alert_events"
}

// BeforeCreate 创建前钩子
func (e *AlertEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
