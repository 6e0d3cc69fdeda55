/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"quality-service/api/controllers"
	"quality-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 数据质量分析
	r.Route("/quality", func(r chi.Router) {
		qualityController := controllers.NewQualityController(
			service.GlobalQualityEngine, service.GlobalAnalysisService)

		r.Post("/analyze", qualityController.AnalyzeDataset)
		r.Post("/score", qualityController.ComputeScore)
		r.Post("/issues", qualityController.DetectIssues)
		r.Post("/anomalies", qualityController.DetectAnomalies)
		r.Get("/reports", qualityController.GetReports)
	})

	// 质量趋势
	r.Route("/trends", func(r chi.Router) {
		trendController := controllers.NewTrendController(service.GlobalTrendTracker)

		r.Get("/{dataset_id}", trendController.GetTrendHistory)
		r.Get("/{dataset_id}/direction", trendController.GetTrendDirection)
		r.Get("/{dataset_id}/window-comparison", trendController.CompareTrendWindows)
	})

	// 告警规则与事件
	alertController := controllers.NewAlertRuleController(
		service.GlobalRuleStore, service.GlobalEventStore)
	r.Route("/alert-rules", func(r chi.Router) {
		r.Post("/", alertController.CreateAlertRule)
		r.Get("/", alertController.GetAlertRules)
		r.Put("/{id}", alertController.UpdateAlertRule)
		r.Delete("/{id}", alertController.DeleteAlertRule)
	})
	r.Get("/alert-events", alertController.GetAlertEvents)
}
