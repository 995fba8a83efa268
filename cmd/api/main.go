package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gin-user-service/internal/core/cache"
	"gin-user-service/internal/core/config"
	"gin-user-service/internal/core/database"
	"gin-user-service/internal/core/logger"
	"gin-user-service/internal/core/server"
	"gin-user-service/internal/domain"
	"gin-user-service/internal/feature/user"
	"gin-user-service/internal/repo"
	"gin-user-service/internal/service"
	"gin-user-service/internal/transport/http/handler"
	"gin-user-service/internal/transport/http/router"
	"gin-user-service/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, cleanup := newLogger(cfg)
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 存储（失败直接退出）
	store, closeStore := mustOpenStore(ctx, cfg, log)
	defer closeStore()
	log.Info("store connected", zap.String("driver", cfg.DB.Driver))

	opts := []service.Option{service.WithLogger(log)}
	if cfg.Redis.Enabled {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = c.Close() }()
		if err := c.Ping(ctx); err != nil {
			log.Warn("redis unreachable, reads fall back to store", zap.Error(err))
		}
		opts = append(opts, service.WithCache(c, time.Duration(cfg.Redis.TTLSec)*time.Second))
		log.Info("user cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	svc := service.NewUserService(store, utils.NewPasswordHasher(cfg.Hash.Cost), opts...)

	reg := &router.Registry{}
	reg.Register("/user", handler.NewUserHandler(svc, user.NewValidator()))
	r := router.NewAPIEngine(log, svc, reg, router.Options{
		MaxBodyBytes:  cfg.App.HTTP.MaxBodyBytes,
		MaxConcurrent: cfg.App.HTTP.MaxConcurrent,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := fmt.Sprintf("http://%s:%d", host4human, cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("users", baseURL+"/user"),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
	)

	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("user api stopped with error", zap.Error(err))
		return
	}
	log.Info("user api stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.File.Enable {
		f := cfg.Log.File
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   f.Filename,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

// mustOpenStore 按 db.driver 选择存储实现；返回的 close 在 server 关闭后调用
func mustOpenStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (domain.UserRepository, func()) {
	timeout := time.Duration(cfg.DB.ConnectTimeoutSec) * time.Second

	switch cfg.DB.Driver {
	case "mongo":
		client, db, err := database.NewMongo(ctx, database.MongoOpts{
			URI:            cfg.DB.URI,
			Database:       cfg.DB.Database,
			MaxPoolSize:    uint64(max(0, cfg.DB.MaxOpenConns)),
			ConnectTimeout: timeout,
		})
		if err != nil {
			l.Fatal("mongo open", zap.Error(err))
		}
		r := repo.NewMongoUserRepo(client, db, cfg.DB.Collection)
		if err := r.EnsureIndexes(ctx); err != nil {
			l.Fatal("mongo indexes", zap.Error(err))
		}
		return r, func() {
			cctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := r.Close(cctx); err != nil {
				l.Warn("mongo close", zap.Error(err))
			}
		}

	case "postgres", "mysql":
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		db, err := database.NewGorm(dctx, database.GormOpts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
		}, l)
		if err != nil {
			l.Fatal("db open", zap.Error(err))
		}
		r := repo.NewGormUserRepo(db)
		if cfg.DB.AutoMigrate {
			if err := r.Migrate(ctx); err != nil {
				l.Fatal("automigrate failed", zap.Error(err))
			}
			l.Info("automigrate done")
		}
		return r, func() {
			if err := database.CloseGorm(db); err != nil {
				l.Warn("db close", zap.Error(err))
			}
		}

	case "memory":
		l.Warn("using in-memory store, data is lost on exit")
		return repo.NewMemoryUserRepo(), func() {}
	}

	l.Fatal("unsupported db driver", zap.String("driver", cfg.DB.Driver))
	return nil, nil
}
