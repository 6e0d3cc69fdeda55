/*
 * @module api/controllers/alert_rule_controller
 * @description 告警规则控制器，提供告警规则CRUD和告警事件查询接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/quality_alert_req.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式；事件日志只读
 * @dependencies quality-service/service/alerting, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/alerting/rule_store.go
 */

package controllers

import (
	"net/http"

	"quality-service/service/alerting"
	"quality-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// AlertRuleController 告警规则控制器
type AlertRuleController struct {
	ruleStore  *alerting.RuleStore
	eventStore *alerting.EventStore
}

// NewAlertRuleController 创建告警规则控制器实例
func NewAlertRuleController(ruleStore *alerting.RuleStore, eventStore *alerting.EventStore) *AlertRuleController {
	return &AlertRuleController{
		ruleStore:  ruleStore,
		eventStore: eventStore,
	}
}

// CreateAlertRuleRequest 创建告警规则请求
type CreateAlertRuleRequest struct {
	Name              string                 `json:"name"`
	AlertType         string                 `json:"alert_type"`
	SeverityThreshold string                 `json:"severity_threshold"`
	CooldownMinutes   int                    `json:"cooldown_minutes"`
	Channels          []string               `json:"channels"`
	Thresholds        map[string]interface{} `json:"thresholds,omitempty"`
	IsEnabled         *bool                  `json:"is_enabled,omitempty"`
}

// CreateAlertRule 创建告警规则
// @Summary 创建告警规则
// @Description 创建新的质量告警规则
// @Tags 告警管理
// @Accept json
// @Produce json
// @Param rule body CreateAlertRuleRequest true "告警规则信息"
// @Success 200 {object} APIResponse{data=models.AlertRule} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /alert-rules [post]
func (c *AlertRuleController) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	rule := &models.AlertRule{
		Name:              req.Name,
		AlertType:         req.AlertType,
		SeverityThreshold: req.SeverityThreshold,
		CooldownMinutes:   req.CooldownMinutes,
		Channels:          req.Channels,
		Thresholds:        req.Thresholds,
		IsEnabled:         true,
	}
	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}
	if rule.SeverityThreshold == "" {
		rule.SeverityThreshold = models.SeverityLow
	}

	if err := c.ruleStore.Create(rule); err != nil {
		render.JSON(w, r, InternalErrorResponse("创建告警规则失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建告警规则成功", rule))
}

// GetAlertRules 获取告警规则列表
// @Summary 获取告警规则列表
// @Description 分页获取告警规则
// @Tags 告警管理
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.AlertRule} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /alert-rules [get]
func (c *AlertRuleController) GetAlertRules(w http.ResponseWriter, r *http.Request) {
	page, size := paginationParams(r)

	rules, total, err := c.ruleStore.List(page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询告警规则失败", err))
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("查询成功", rules, total, page, size))
}

// UpdateAlertRule 更新告警规则
// @Summary 更新告警规则
// @Description 按ID更新告警规则配置
// @Tags 告警管理
// @Accept json
// @Produce json
// @Param id path string true "规则ID"
// @Param rule body CreateAlertRuleRequest true "告警规则信息"
// @Success 200 {object} APIResponse{data=models.AlertRule} "更新成功"
// @Failure 404 {object} APIResponse "规则不存在"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /alert-rules/{id} [put]
func (c *AlertRuleController) UpdateAlertRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rule, err := c.ruleStore.Get(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			render.JSON(w, r, NotFoundResponse("告警规则不存在", nil))
			return
		}
		render.JSON(w, r, InternalErrorResponse("查询告警规则失败", err))
		return
	}

	var req CreateAlertRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	rule.Name = req.Name
	rule.AlertType = req.AlertType
	rule.SeverityThreshold = req.SeverityThreshold
	rule.CooldownMinutes = req.CooldownMinutes
	rule.Channels = req.Channels
	rule.Thresholds = req.Thresholds
	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}

	if err := c.ruleStore.Update(rule); err != nil {
		render.JSON(w, r, InternalErrorResponse("更新告警规则失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("更新告警规则成功", rule))
}

// DeleteAlertRule 删除告警规则
// @Summary 删除告警规则
// @Description 按ID删除告警规则
// @Tags 告警管理
// @Produce json
// @Param id path string true "规则ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /alert-rules/{id} [delete]
func (c *AlertRuleController) DeleteAlertRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.ruleStore.Delete(id); err != nil {
		render.JSON(w, r, InternalErrorResponse("删除告警规则失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除告警规则成功", nil))
}

// GetAlertEvents 获取告警事件列表
// @Summary 获取告警事件列表
// @Description 分页查询告警事件，可按规则筛选
// @Tags 告警管理
// @Produce json
// @Param rule_id query string false "规则ID"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.AlertEvent} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /alert-events [get]
func (c *AlertRuleController) GetAlertEvents(w http.ResponseWriter, r *http.Request) {
	page, size := paginationParams(r)
	ruleID := r.URL.Query().Get("rule_id")

	events, total, err := c.eventStore.List(ruleID, page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询告警事件失败", err))
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("查询成功", events, total, page, size))
}
