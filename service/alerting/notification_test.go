/*
 * @module service/alerting/notification_test
 * @description 通知分发器与渠道单元测试
 * @architecture 测试层 - 伪发送器 + httptest 服务验证
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 事件分发 -> 渠道扇出 -> 投递状态断言
 * @rules 验证渠道独立性：单渠道失败不影响其他渠道的投递状态
 * @dependencies testing, testify, net/http/httptest
 * @refs notification.go
 */

package alerting

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quality-service/service/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender 测试用通知发送器
type fakeSender struct {
	channelType string
	enabled     bool
	sendErr     error
	sentCount   int
}

func (f *fakeSender) Send(event *models.AlertEvent) error {
	f.sentCount++
	return f.sendErr
}

func (f *fakeSender) GetChannelType() string { return f.channelType }
func (f *fakeSender) IsEnabled() bool        { return f.enabled }

func eventWithChannels(channels ...string) (*models.AlertEvent, *models.AlertRule) {
	deliveryStatus := make(models.JSONB, len(channels))
	for _, c := range channels {
		deliveryStatus[c] = models.DeliveryPending
	}
	event := &models.AlertEvent{
		ID:             "evt-1",
		RuleID:         "r1",
		FiredAt:        time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		Severity:       models.SeverityHigh,
		Title:          "[high] 数据质量告警: 测试规则",
		Message:        "标识列 order_id 存在重复值",
		DeliveryStatus: deliveryStatus,
	}
	rule := &models.AlertRule{ID: "r1", Name: "测试规则", Channels: pq.StringArray(channels)}
	return event, rule
}

func TestDispatchPerChannelIndependence(t *testing.T) {
	// email 投递失败，webhook 成功：两个渠道状态互不影响
	dispatcher := NewDispatcher()
	email := &fakeSender{channelType: models.ChannelEmail, enabled: true, sendErr: errors.New("网关超时")}
	webhook := &fakeSender{channelType: models.ChannelWebhook, enabled: true}
	dispatcher.RegisterSender(email)
	dispatcher.RegisterSender(webhook)

	event, rule := eventWithChannels(models.ChannelEmail, models.ChannelWebhook)
	dispatcher.Dispatch(event, rule)

	assert.Equal(t, models.DeliveryFailed, event.DeliveryStatus[models.ChannelEmail])
	assert.Equal(t, models.DeliverySent, event.DeliveryStatus[models.ChannelWebhook])
	assert.Equal(t, 1, email.sentCount)
	assert.Equal(t, 1, webhook.sentCount)
}

func TestDispatchUnavailableChannels(t *testing.T) {
	t.Run("未注册的渠道标记失败", func(t *testing.T) {
		dispatcher := NewDispatcher()
		event, rule := eventWithChannels(models.ChannelEmail)
		dispatcher.Dispatch(event, rule)
		assert.Equal(t, models.DeliveryFailed, event.DeliveryStatus[models.ChannelEmail])
	})

	t.Run("禁用的渠道标记失败且不调用", func(t *testing.T) {
		dispatcher := NewDispatcher()
		sender := &fakeSender{channelType: models.ChannelEmail, enabled: false}
		dispatcher.RegisterSender(sender)

		event, rule := eventWithChannels(models.ChannelEmail)
		dispatcher.Dispatch(event, rule)
		assert.Equal(t, models.DeliveryFailed, event.DeliveryStatus[models.ChannelEmail])
		assert.Equal(t, 0, sender.sentCount)
	})
}

func TestWebhookChannelSend(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := &WebhookNotificationChannel{URL: server.URL, Enabled: true}
	event, _ := eventWithChannels(models.ChannelWebhook)

	require.NoError(t, channel.Send(event))
	assert.Equal(t, "application/json", gotContentType)
}

func TestWebhookChannelErrors(t *testing.T) {
	t.Run("服务端错误响应", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		channel := &WebhookNotificationChannel{URL: server.URL, Enabled: true}
		event, _ := eventWithChannels(models.ChannelWebhook)
		assert.Error(t, channel.Send(event))
	})

	t.Run("渠道未启用", func(t *testing.T) {
		channel := &WebhookNotificationChannel{URL: "http://localhost:0", Enabled: false}
		event, _ := eventWithChannels(models.ChannelWebhook)
		assert.Error(t, channel.Send(event))
	})
}

func TestEmailChannelSend(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	channel := &EmailNotificationChannel{
		GatewayURL:  server.URL,
		FromAddress: "noreply@example.com",
		ToAddresses: []string{"ops@example.com"},
		Enabled:     true,
	}
	event, _ := eventWithChannels(models.ChannelEmail)

	require.NoError(t, channel.Send(event))
	assert.Contains(t, string(gotBody), "noreply@example.com")
	assert.Contains(t, string(gotBody), event.Title)
}
