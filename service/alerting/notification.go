/*
 * @module service/alerting/notification
 * @description 通知渠道接口与实现，为告警评估器提供邮件和 Webhook 投递能力及按渠道的状态跟踪
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_alert_req.md
 * @stateFlow 事件生成 -> 渠道扇出 -> pending -> sent/failed
 * @rules 各渠道投递互相独立，单渠道失败不阻塞也不回滚其他渠道；投递失败不影响触发决策
 * @dependencies quality-service/service/models
 * @refs service/alerting/evaluator.go
 */

package alerting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"quality-service/service/models"
)

// NotificationSender 通知发送器接口
type NotificationSender interface {
	Send(event *models.AlertEvent) error
	GetChannelType() string
	IsEnabled() bool
}

// Dispatcher 告警通知分发器
// 将告警事件扇出到规则启用的所有渠道，逐渠道跟踪投递状态
type Dispatcher struct {
	mu      sync.RWMutex
	senders map[string]NotificationSender
}

// NewDispatcher 创建通知分发器实例
func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[string]NotificationSender)}
}

// RegisterSender 注册通知渠道
func (d *Dispatcher) RegisterSender(sender NotificationSender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[sender.GetChannelType()] = sender
}

// Dispatch 将事件投递到规则启用的全部渠道
// 渠道间并行且互不影响，投递结果写入事件的 DeliveryStatus
func (d *Dispatcher) Dispatch(event *models.AlertEvent, rule *models.AlertRule) {
	var wg sync.WaitGroup
	var statusMu sync.Mutex

	for _, channel := range rule.Channels {
		d.mu.RLock()
		sender, exists := d.senders[channel]
		d.mu.RUnlock()

		if !exists || !sender.IsEnabled() {
			statusMu.Lock()
			event.DeliveryStatus[channel] = models.DeliveryFailed
			statusMu.Unlock()
			slog.Warn("通知渠道不可用", "channel", channel, "rule_id", rule.ID)
			continue
		}

		wg.Add(1)
		go func(channel string, sender NotificationSender) {
			defer wg.Done()
			status := models.DeliverySent
			if err := sender.Send(event); err != nil {
				status = models.DeliveryFailed
				slog.Error("告警通知投递失败", "channel", channel, "event_id", event.ID, "error", err)
			}
			statusMu.Lock()
			event.DeliveryStatus[channel] = status
			statusMu.Unlock()
		}(channel, sender)
	}
	wg.Wait()
}

// EmailNotificationChannel 邮件通知渠道
// 投递机制由外部邮件网关承担，此处组装邮件并移交
type EmailNotificationChannel struct {
	GatewayURL  string   `json:"gateway_url"`
	FromAddress string   `json:"from_address"`
	ToAddresses []string `json:"to_addresses"`
	Enabled     bool     `json:"is_enabled"`
	Timeout     time.Duration
}

// Send 发送邮件通知
func (e *EmailNotificationChannel) Send(event *models.AlertEvent) error {
	if !e.Enabled {
		return fmt.Errorf("邮件通知渠道未启用")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"from":    e.FromAddress,
		"to":      e.ToAddresses,
		"subject": event.Title,
		"body":    e.buildEmailBody(event),
	})
	if err != nil {
		return fmt.Errorf("序列化邮件内容失败: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(e.GatewayURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("发送邮件请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("邮件网关响应错误: %d", resp.StatusCode)
	}
	return nil
}

// GetChannelType 获取渠道类型
func (e *EmailNotificationChannel) GetChannelType() string {
	return models.ChannelEmail
}

// IsEnabled 检查是否启用
func (e *EmailNotificationChannel) IsEnabled() bool {
	return e.Enabled
}

// 构建邮件正文
func (e *EmailNotificationChannel) buildEmailBody(event *models.AlertEvent) string {
	return fmt.Sprintf(`告警详情：
- 事件ID: %s
- 规则ID: %s
- 严重程度: %s
- 描述: %s
- 触发时间: %s
`, event.ID, event.RuleID, event.Severity, event.Message,
		event.FiredAt.Format(time.RFC3339))
}

// WebhookNotificationChannel Webhook通知渠道
type WebhookNotificationChannel struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Timeout time.Duration     `json:"timeout"`
	Enabled bool              `json:"is_enabled"`
}

// Send 发送Webhook通知
func (w *WebhookNotificationChannel) Send(event *models.AlertEvent) error {
	if !w.Enabled {
		return fmt.Errorf("Webhook通知渠道未启用")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化告警事件失败: %w", err)
	}

	method := w.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequest(method, w.URL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("发送Webhook通知失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Webhook通知响应错误: %d", resp.StatusCode)
	}
	return nil
}

// GetChannelType 获取渠道类型
func (w *WebhookNotificationChannel) GetChannelType() string {
	return models.ChannelWebhook
}

// IsEnabled 检查是否启用
func (w *WebhookNotificationChannel) IsEnabled() bool {
	return w.Enabled
}
