package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"zcatch-server/internal/core"
	"zcatch-server/internal/dao"
	"zcatch-server/internal/handler"
	"zcatch-server/internal/hardmode"
	"zcatch-server/internal/mq"
	"zcatch-server/internal/rank"
	"zcatch-server/pkg/config"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig

	// 排名存储：连接失败时降级为无排名
	gw := rank.NewGateway(nil)
	if cfg.Ranking.Enabled {
		db, err := dao.InitMySQL(dao.DSN(cfg.MySQL))
		if err != nil {
			log.Printf("Ranking disabled: %v", err)
		} else {
			gw = rank.NewGateway(dao.NewRankStore(db))
			log.Printf("Ranking store connected")
		}
	}

	// 初始化 Redis（用于房间 token 校验）
	if cfg.Redis.Addr != "" {
		if err := dao.InitRedis(cfg.Redis); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	}

	var publisher core.Publisher
	if cfg.MQ.Url != "" {
		producer, err := mq.NewProducer(cfg.MQ.Url, cfg.MQ.QueueName)
		if err != nil {
			log.Printf("Round results will not be published: %v", err)
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	variant, ok := hardmode.ParseVariant(cfg.Game.Variant)
	if !ok {
		log.Fatalf("Unknown game variant %q", cfg.Game.Variant)
	}

	core.SetDefaults(core.RoomOptions{
		TickRate:      cfg.Server.TickRate,
		MaxPlayers:    cfg.Game.MaxPlayers,
		MinPlayers:    cfg.Game.MinPlayers,
		Variant:       variant,
		AimBotSpeed:   cfg.Game.AimBotSpeed,
		LockTimeoutMs: max(cfg.Ranking.TickLockTimeoutMs, 0),
		Ranking:       gw,
		Publisher:     publisher,
	})

	stop := make(chan struct{})
	go core.StartCleanupTask(stop)

	grpcServer, err := handler.StartGRPC(cfg.Server.GrpcPort, handler.NewHealthServer(gw))
	if err != nil {
		log.Fatalf("gRPC server failed: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(handler.Cors())

	rankAPI := &handler.RankAPI{Gateway: gw, LockTimeoutMs: cfg.Ranking.HTTPLockTimeoutMs}

	r.GET("/ws", core.HandleWebSocket)
	api := r.Group("/api")
	{
		api.GET("/rooms", handler.HandleListRooms)
		api.GET("/rank/top", rankAPI.HandleTop)
		api.GET("/rank/:name", rankAPI.HandleLookup)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("Game Service running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	grpcServer.GracefulStop()

	close(stop)
	// 保存所有玩家排名并等待后台写入完成
	core.Shutdown()
	log.Printf("Game Service stopped")
}
