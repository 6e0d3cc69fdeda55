/*
 * @module api/controllers/trend_controller
 * @description 质量趋势控制器，提供趋势历史、方向分类和时间窗对比查询接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow HTTP请求处理流程
 * @rules 趋势数据只读，追加由分析编排服务完成
 * @dependencies quality-service/service/trend, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/trend/tracker.go
 */

package controllers

import (
	"net/http"
	"strconv"
	"time"

	"quality-service/service/trend"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// TrendController 质量趋势控制器
type TrendController struct {
	tracker *trend.Tracker
}

// NewTrendController 创建质量趋势控制器实例
func NewTrendController(tracker *trend.Tracker) *TrendController {
	return &TrendController{tracker: tracker}
}

// GetTrendHistory 获取趋势历史
// @Summary 获取数据集质量趋势历史
// @Description 按时间升序返回数据集最近的质量趋势点
// @Tags 质量趋势
// @Produce json
// @Param dataset_id path string true "数据集标识"
// @Param limit query int false "返回数量上限" default(100)
// @Success 200 {object} APIResponse{data=[]models.QualityTrendPoint} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /trends/{dataset_id} [get]
func (c *TrendController) GetTrendHistory(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "dataset_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	points, err := c.tracker.History(datasetID, limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询趋势历史失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", points))
}

// DirectionResponse 趋势方向响应
type DirectionResponse struct {
	DatasetID string `json:"dataset_id"`
	Direction string `json:"direction" example:"up"`
	Window    int    `json:"window"`
}

// GetTrendDirection 获取趋势方向
// @Summary 获取数据集质量趋势方向
// @Description 对最近的趋势窗口做方向分类（up/down/stable）
// @Tags 质量趋势
// @Produce json
// @Param dataset_id path string true "数据集标识"
// @Param window query int false "窗口内趋势点数量" default(10)
// @Success 200 {object} APIResponse{data=DirectionResponse} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /trends/{dataset_id}/direction [get]
func (c *TrendController) GetTrendDirection(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "dataset_id")
	window, _ := strconv.Atoi(r.URL.Query().Get("window"))

	direction, err := c.tracker.Direction(datasetID, window)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询趋势方向失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", DirectionResponse{
		DatasetID: datasetID,
		Direction: direction,
		Window:    window,
	}))
}

// CompareTrendWindows 时间窗对比
// @Summary 对比最近与上一时间窗的问题量
// @Description 对比最近 N 天与其前 N 天内趋势点的问题量变化
// @Tags 质量趋势
// @Produce json
// @Param dataset_id path string true "数据集标识"
// @Param days query int false "时间窗天数" default(7)
// @Success 200 {object} APIResponse{data=trend.WindowComparison} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /trends/{dataset_id}/window-comparison [get]
func (c *TrendController) CompareTrendWindows(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "dataset_id")
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 7
	}

	comparison, err := c.tracker.CompareWindows(datasetID, time.Duration(days)*24*time.Hour, time.Now())
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("时间窗对比失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", comparison))
}
