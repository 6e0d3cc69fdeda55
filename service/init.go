/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移和各质量服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/database/migrate.go
 */

package service

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"quality-service/logger"
	"quality-service/service/alerting"
	"quality-service/service/analysis"
	"quality-service/service/database"
	"quality-service/service/distributed_lock"
	"quality-service/service/quality"
	"quality-service/service/scheduler"
	"quality-service/service/trend"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                     *gorm.DB
	GlobalQualityEngine    *quality.Engine
	GlobalTrendTracker     *trend.Tracker
	GlobalDispatcher       *alerting.Dispatcher
	GlobalAlertEvaluator   *alerting.Evaluator
	GlobalRuleStore        *alerting.RuleStore
	GlobalEventStore       *alerting.EventStore
	GlobalAnalysisService  *analysis.Service
	GlobalQualityScheduler *scheduler.QualityScheduler
)

func init() {
	logger.InitLogger()
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
}

// initServices 初始化服务
func initServices() {
	engineConfig := &quality.EngineConfig{
		Scorer: &quality.ScorerConfig{FreshnessDays: freshnessDaysFromEnv()},
	}
	GlobalQualityEngine = quality.NewEngine(engineConfig)
	GlobalTrendTracker = trend.NewTracker(trend.NewGormStore(DB), trend.DefaultEpsilon)

	GlobalDispatcher = alerting.NewDispatcher()
	registerNotificationChannels(GlobalDispatcher)
	GlobalAlertEvaluator = alerting.NewEvaluator(GlobalDispatcher)
	GlobalRuleStore = alerting.NewRuleStore(DB)
	GlobalEventStore = alerting.NewEventStore(DB)

	GlobalAnalysisService = analysis.NewService(
		GlobalQualityEngine, GlobalTrendTracker, GlobalAlertEvaluator,
		GlobalRuleStore, GlobalEventStore, DB)

	GlobalQualityScheduler = scheduler.NewQualityScheduler(GlobalAnalysisService)
	if os.Getenv("REDIS_HOST") != "" {
		if lock, err := distributed_lock.NewRedisLock(); err != nil {
			log.Printf("初始化分布式锁失败，退化为单实例调度: %v", err)
		} else {
			GlobalQualityScheduler.SetDistributedLock(lock)
		}
	}
	if err := GlobalQualityScheduler.StartScheduler(); err != nil {
		log.Printf("启动质量扫描调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}

// registerNotificationChannels 按环境变量装配通知渠道
func registerNotificationChannels(dispatcher *alerting.Dispatcher) {
	if gatewayURL := os.Getenv("MAIL_GATEWAY_URL"); gatewayURL != "" {
		dispatcher.RegisterSender(&alerting.EmailNotificationChannel{
			GatewayURL:  gatewayURL,
			FromAddress: getEnvWithDefault("MAIL_FROM", "quality@localhost"),
			ToAddresses: splitNonEmpty(os.Getenv("MAIL_TO")),
			Enabled:     true,
		})
	}
	if webhookURL := os.Getenv("ALERT_WEBHOOK_URL"); webhookURL != "" {
		dispatcher.RegisterSender(&alerting.WebhookNotificationChannel{
			URL:     webhookURL,
			Enabled: true,
		})
	}
}

func freshnessDaysFromEnv() int {
	if val := os.Getenv("QUALITY_FRESHNESS_DAYS"); val != "" {
		if days, err := strconv.Atoi(val); err == nil && days > 0 {
			return days
		}
	}
	return quality.DefaultFreshnessDays
}

func splitNonEmpty(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
