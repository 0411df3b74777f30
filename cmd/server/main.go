package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/pinochle-score-sheet-backend/api"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/game"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/backup"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/config"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/database"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/health"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/shutdown"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/startup"
	"github.com/SlpAus/pinochle-score-sheet-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	database.InitDB(cfg.Database.Sqlite)

	// 选择计分表的主存储介质
	useRedis := cfg.Database.Driver != "memory"
	var kv game.KV
	if useRedis {
		database.InitRedis(cfg.Database.Redis)
		// 阻塞式获取初始Run ID，供健康检查识别Redis重启
		health.InitializeRunID()
		kv = game.NewRedisKV()
	} else {
		fmt.Println("警告: 正在使用内存存储驱动，进程退出后热数据丢失。")
		kv = game.NewMemoryKV()
	}

	// 执行应用首次启动初始化流程（含启动自愈 migrateAll）
	if err := startup.InitializeApplication(kv); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 阻塞式执行一次启动后健康检查
	if useRedis {
		fmt.Println("正在执行启动后健康检查...")
		health.PerformCheck()
	}

	// 创建生命周期管理器并启动后台服务
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	backupHandle, err := gracefulMgr.NewServiceHandle("backup-scheduler")
	if err != nil {
		panic(err)
	}
	go backup.StartBackupScheduler(backupHandle)

	if useRedis {
		healthHandle, err := gracefulMgr.NewServiceHandle("redis-health-check")
		if err != nil {
			panic(err)
		}
		go health.StartRedisHealthCheck(healthHandle)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	allowedOrigins := cfg.Server.Cors.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 阻塞等待停机信号，执行两阶段优雅停机和最终快照
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
