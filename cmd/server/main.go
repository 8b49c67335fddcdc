package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/dm-service/internal/api"
	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/config"
	"github.com/fathima-sithara/dm-service/internal/events"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/logger"
	"github.com/fathima-sithara/dm-service/internal/metrics"
	"github.com/fathima-sithara/dm-service/internal/repository"
	"github.com/fathima-sithara/dm-service/internal/service"
	"github.com/fathima-sithara/dm-service/internal/ws"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()

	verifier, err := auth.NewVerifier(cfg.JWT.PublicKeyPath)
	if err != nil {
		zl.Fatalw("jwt verifier init", "err", err)
	}

	client, err := repository.NewMongoClient(cfg)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	db := client.Database(cfg.Mongo.Database)
	usersCol := db.Collection(cfg.Mongo.UsersCollection)
	convsCol := db.Collection(cfg.Mongo.ConversationsCollection)
	msgsCol := db.Collection(cfg.Mongo.MessagesCollection)

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureIndexes(idxCtx, usersCol, convsCol, msgsCol); err != nil {
		idxCancel()
		zl.Fatalw("ensure indexes", "err", err)
	}
	idxCancel()

	users := repository.NewMongoUserRepository(usersCol)
	convs := repository.NewMongoConversationRepository(convsCol)
	msgs := repository.NewMongoMessageRepository(msgsCol)

	// Single-instance deployments run without Redis; live re-delivery then
	// only reaches subscribers on this instance.
	var notifier live.Notifier
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rn := live.NewRedisNotifier(rdb, cfg.Redis.Prefix, zl)
		defer rn.Close()
		notifier = rn
	} else {
		notifier = live.NewLocalNotifier()
	}

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, zl)
	defer publisher.Close()

	identitySvc := service.NewIdentityService(users, notifier, publisher)
	directorySvc := service.NewDirectoryService(users)
	registrySvc := service.NewRegistryService(users, convs, msgs, notifier, publisher)
	channelSvc := service.NewChannelService(users, convs, msgs, notifier, publisher)

	hub := ws.NewHub(identitySvc, directorySvc, registrySvc, channelSvc, notifier, zl)
	defer hub.Close()

	app := api.NewServer(verifier, identitySvc, directorySvc, registrySvc, channelSvc, hub, zl)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			zl.Warnw("metrics listener stopped", "err", err)
		}
	}()

	errs := make(chan error, 1)
	go func() {
		errs <- app.Listen(fmt.Sprintf(":%d", cfg.App.Port))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		zl.Errorw("server stopped", "err", err)
	case sig := <-stop:
		zl.Infow("shutting down", "signal", sig.String())
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Errorw("shutdown", "err", err)
		}
	}
}
