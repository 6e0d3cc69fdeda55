/*
 * @module api/controllers/quality_controller
 * @description 数据质量控制器，提供按需质量分析、评分、问题检测、异常检测和报告查询接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow HTTP请求 -> 数据集快照解析 -> 质量分析 -> 响应返回
 * @rules 统一的错误处理和响应格式；分析对上传快照只读
 * @dependencies quality-service/service/analysis, quality-service/service/quality, github.com/go-chi/render
 * @refs service/quality/engine.go, service/analysis/analysis_service.go
 */

package controllers

import (
	"net/http"
	"strconv"
	"time"

	"quality-service/service/analysis"
	"quality-service/service/models"
	"quality-service/service/quality"

	"github.com/go-chi/render"
)

// QualityController 数据质量控制器
type QualityController struct {
	engine          *quality.Engine
	analysisService *analysis.Service
}

// NewQualityController 创建数据质量控制器实例
func NewQualityController(engine *quality.Engine, analysisService *analysis.Service) *QualityController {
	return &QualityController{
		engine:          engine,
		analysisService: analysisService,
	}
}

// AnalyzeDataset 执行完整质量分析
// @Summary 执行数据集质量分析
// @Description 对上传的数据集快照执行画像、评分、问题检测和异常检测；携带 id 时追加趋势并评估告警
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param dataset body models.Dataset true "数据集快照"
// @Success 200 {object} APIResponse{data=analysis.RunResult} "分析成功"
// @Failure 400 {object} APIResponse "数据集结构非法"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /quality/analyze [post]
func (c *QualityController) AnalyzeDataset(w http.ResponseWriter, r *http.Request) {
	var ds models.Dataset
	if err := render.DecodeJSON(r.Body, &ds); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	result, err := c.analysisService.Run(r.Context(), &ds, time.Now())
	if err != nil {
		if _, ok := err.(*models.InvalidDatasetError); ok {
			render.JSON(w, r, BadRequestResponse("数据集结构非法", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("质量分析失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("质量分析完成", result))
}

// ComputeScore 仅计算质量评分
// @Summary 计算数据集质量评分
// @Description 对上传的数据集快照计算五维质量评分
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param dataset body models.Dataset true "数据集快照"
// @Success 200 {object} APIResponse{data=models.QualityScore} "计算成功"
// @Failure 400 {object} APIResponse "数据集结构非法"
// @Router /quality/score [post]
func (c *QualityController) ComputeScore(w http.ResponseWriter, r *http.Request) {
	var ds models.Dataset
	if err := render.DecodeJSON(r.Body, &ds); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	score, err := c.engine.ComputeQualityScore(r.Context(), &ds, time.Now())
	if err != nil {
		render.JSON(w, r, BadRequestResponse("质量评分失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("质量评分完成", score))
}

// DetectIssues 仅执行质量问题检测
// @Summary 检测数据集质量问题
// @Description 对上传的数据集快照应用内置规则表
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param dataset body models.Dataset true "数据集快照"
// @Success 200 {object} APIResponse{data=[]models.QualityIssue} "检测成功"
// @Failure 400 {object} APIResponse "数据集结构非法"
// @Router /quality/issues [post]
func (c *QualityController) DetectIssues(w http.ResponseWriter, r *http.Request) {
	var ds models.Dataset
	if err := render.DecodeJSON(r.Body, &ds); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	issues, err := c.engine.DetectIssues(r.Context(), &ds)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("质量问题检测失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("质量问题检测完成", issues))
}

// DetectAnomalies 仅执行异常检测
// @Summary 检测数据集统计异常
// @Description 对数值列做 Z-score/IQR 离群检测，对类别列做稀有值检测
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param dataset body models.Dataset true "数据集快照"
// @Success 200 {object} APIResponse{data=[]models.AnomalyResult} "检测成功"
// @Failure 400 {object} APIResponse "数据集结构非法"
// @Router /quality/anomalies [post]
func (c *QualityController) DetectAnomalies(w http.ResponseWriter, r *http.Request) {
	var ds models.Dataset
	if err := render.DecodeJSON(r.Body, &ds); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	anomalies, err := c.engine.DetectAnomalies(r.Context(), &ds)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("异常检测失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("异常检测完成", anomalies))
}

// GetReports 查询历史质量报告
// @Summary 获取质量分析报告列表
// @Description 分页查询数据集的历史质量报告
// @Tags 数据质量
// @Produce json
// @Param dataset_id query string false "数据集标识"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.QualityReport} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /quality/reports [get]
func (c *QualityController) GetReports(w http.ResponseWriter, r *http.Request) {
	page, size := paginationParams(r)
	datasetID := r.URL.Query().Get("dataset_id")

	reports, total, err := c.analysisService.ListReports(datasetID, page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询质量报告失败", err))
		return
	}
	render.JSON(w, r, PaginatedSuccessResponse("查询成功", reports, total, page, size))
}

// paginationParams 解析分页参数
func paginationParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	return page, size
}
