package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/SergeyBogomolovv/order-fulfillment-service/docs"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/app"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/config"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/handler"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/postgres"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/repo"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/service"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/cache"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/trm"

	"github.com/joho/godotenv"
)

// @title           Order Fulfillment API
// @version         1.0
// @description     Документация HTTP API сервиса выполнения заказов
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	panicIfErr("failed to run migrations", postgres.Migrate(db))

	orderRepo := repo.NewOrderRepo(db)
	inventoryRepo := repo.NewInventoryRepo(db)
	txManager := trm.NewManager(db)
	lru := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	orderService := service.NewOrderService(logger, txManager, orderRepo, inventoryRepo, lru)
	inventoryService := service.NewInventoryService(logger, txManager, inventoryRepo)

	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService)
	httpHandler := handler.NewHTTPHandler(logger, orderService)
	inventoryHandler := handler.NewInventoryHandler(logger, inventoryService)

	handler.RegisterMetrics()

	app := app.New(logger, conf)

	app.SetHTTPHandlers(httpHandler, inventoryHandler)
	app.SetConsumers(kafkaHandler)
	app.SetStarters(lru, cacheWarmUpAdapter{svc: orderService, count: conf.Cache.Capacity})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type cacheWarmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a cacheWarmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
