/*
 * @module service/alerting/evaluator
 * @description 告警评估器，将新检出的质量问题与告警规则匹配，执行冷却检查并生成告警事件
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_alert_req.md
 * @stateFlow Idle -> Evaluating -> {Fired, Suppressed} -> Idle
 * @rules 冷却检查与触发按规则原子执行，防止并发评估重复触发；畸形规则记录告警后跳过
 * @dependencies quality-service/service/models, github.com/google/uuid
 * @refs service/alerting/notification.go, service/models/alert_models.go
 */

package alerting

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quality-service/service/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quality_alerts_fired_total",
		Help: "触发的告警事件总数",
	})
	alertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quality_alerts_suppressed_total",
		Help: "因冷却被抑制的告警总数",
	})
)

// 合法的告警类型：通配符加全部问题类别
var validAlertTypes = map[string]bool{
	models.AlertTypeAll:         true,
	models.CategoryCompleteness: true,
	models.CategoryConsistency:  true,
	models.CategoryAccuracy:     true,
	models.CategoryUniqueness:   true,
	models.CategoryTimeliness:   true,
	models.CategoryValidity:     true,
	models.CategoryConformity:   true,
}

// Evaluator 告警评估器
// 按规则维护触发时间，冷却检查与更新在规则级互斥下原子完成
type Evaluator struct {
	mu         sync.Mutex
	lastFired  map[string]time.Time   // 规则ID -> 最近触发时间
	ruleLocks  map[string]*sync.Mutex // 规则级锁
	dispatcher *Dispatcher
}

// NewEvaluator 创建告警评估器实例
func NewEvaluator(dispatcher *Dispatcher) *Evaluator {
	return &Evaluator{
		lastFired:  make(map[string]time.Time),
		ruleLocks:  make(map[string]*sync.Mutex),
		dispatcher: dispatcher,
	}
}

func (e *Evaluator) ruleLock(ruleID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, exists := e.ruleLocks[ruleID]
	if !exists {
		lock = &sync.Mutex{}
		e.ruleLocks[ruleID] = lock
	}
	return lock
}

// EvaluateAlerts 评估全部规则并返回触发的告警事件
// now 由调用方显式传入；规则的新 LastFiredAt 通过返回事件的 FiredAt 上报，
// 核心不直接回写规则存储
func (e *Evaluator) EvaluateAlerts(issues []models.QualityIssue, rules []models.AlertRule, now time.Time) []models.AlertEvent {
	events := make([]models.AlertEvent, 0)
	for i := range rules {
		rule := &rules[i]
		if !rule.IsEnabled {
			continue
		}
		if err := validateRule(rule); err != nil {
			slog.Warn("跳过畸形告警规则", "rule_id", rule.ID, "rule_name", rule.Name, "error", err)
			continue
		}

		matched := matchIssues(issues, rule)
		if len(matched) == 0 {
			continue
		}

		if event := e.fireWithCooldown(rule, matched, now); event != nil {
			events = append(events, *event)
		}
	}
	return events
}

// fireWithCooldown 对单条规则执行冷却检查并触发
// 检查与更新持有规则锁，重叠的评估调用不会重复触发
func (e *Evaluator) fireWithCooldown(rule *models.AlertRule, matched []models.QualityIssue, now time.Time) *models.AlertEvent {
	lock := e.ruleLock(rule.ID)
	lock.Lock()
	defer lock.Unlock()

	lastFired := e.lastFiredAt(rule)
	cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
	if !lastFired.IsZero() && now.Sub(lastFired) < cooldown {
		alertsSuppressed.Inc()
		slog.Debug("告警在冷却期内被抑制",
			"rule_id", rule.ID, "last_fired_at", lastFired, "cooldown_minutes", rule.CooldownMinutes)
		return nil
	}

	e.mu.Lock()
	e.lastFired[rule.ID] = now
	e.mu.Unlock()

	event := buildEvent(rule, matched, now)
	alertsFired.Inc()

	if e.dispatcher != nil {
		e.dispatcher.Dispatch(event, rule)
	}
	return event
}

// lastFiredAt 取内部记录与规则存储中的较晚者
// 规则存储可能由其他实例更新过，取较晚值避免跨实例重复触发
func (e *Evaluator) lastFiredAt(rule *models.AlertRule) time.Time {
	e.mu.Lock()
	internal := e.lastFired[rule.ID]
	e.mu.Unlock()

	if rule.LastFiredAt != nil && rule.LastFiredAt.After(internal) {
		return *rule.LastFiredAt
	}
	return internal
}

// validateRule 校验告警规则
func validateRule(rule *models.AlertRule) error {
	if !validAlertTypes[rule.AlertType] {
		return fmt.Errorf("未知的告警类型: %s", rule.AlertType)
	}
	if rule.CooldownMinutes <= 0 {
		return fmt.Errorf("冷却时间必须为正数，当前为 %d", rule.CooldownMinutes)
	}
	if models.SeverityRank(rule.SeverityThreshold) == 0 {
		return fmt.Errorf("未知的严重程度阈值: %s", rule.SeverityThreshold)
	}
	return nil
}

// matchIssues 筛选命中规则的告警问题
// 告警类型为 all 时匹配所有类别；严重程度需不低于规则阈值
func matchIssues(issues []models.QualityIssue, rule *models.AlertRule) []models.QualityIssue {
	threshold := models.SeverityRank(rule.SeverityThreshold)
	var matched []models.QualityIssue
	for _, issue := range issues {
		if rule.AlertType != models.AlertTypeAll && issue.Category != rule.AlertType {
			continue
		}
		if models.SeverityRank(issue.Severity) < threshold {
			continue
		}
		matched = append(matched, issue)
	}
	return matched
}

// buildEvent 组装告警事件，投递状态按渠道初始化为 pending
func buildEvent(rule *models.AlertRule, matched []models.QualityIssue, now time.Time) *models.AlertEvent {
	top := matched[0]
	for _, issue := range matched[1:] {
		if models.SeverityRank(issue.Severity) > models.SeverityRank(top.Severity) {
			top = issue
		}
	}

	message := top.Description
	if len(matched) > 1 {
		message = fmt.Sprintf("%s（共命中 %d 个质量问题）", top.Description, len(matched))
	}

	deliveryStatus := make(models.JSONB, len(rule.Channels))
	for _, channel := range rule.Channels {
		deliveryStatus[channel] = models.DeliveryPending
	}

	return &models.AlertEvent{
		ID:             uuid.New().String(),
		RuleID:         rule.ID,
		FiredAt:        now,
		Severity:       top.Severity,
		Title:          fmt.Sprintf("[%s] 数据质量告警: %s", top.Severity, rule.Name),
		Message:        message,
		DeliveryStatus: deliveryStatus,
	}
}
