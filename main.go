package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/cache"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/configs"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/routes"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/ws"
)

func main() {
	cfg := configs.LoadConfig()

	// money ออกเป็นตัวเลข JSON ไม่ใช่ string
	decimal.MarshalJSONWithoutQuotes = true

	// DB
	configs.ConnectionDB(cfg)
	db := configs.DB()

	// migrate
	if err := configs.SetupDatabase(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	if cfg.SeedDemo {
		tenant, err := configs.SeedDemo(db)
		if err != nil {
			log.Fatalf("seed demo failed: %v", err)
		}
		if err := configs.SeedOwner(db, cfg, tenant.ID); err != nil {
			log.Fatalf("seed owner failed: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache: redis ถ้ามี REDIS_ADDR ไม่งั้นใช้ memory (process เดียว)
	var store routes.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		defer client.Close()
		store = cache.NewRedisCache(client, cfg.SessionTTL)
		log.Println("session cache: redis", cfg.RedisAddr)
	}

	// Events: ws hub เสมอ, RabbitMQ/Kafka ถ้าตั้งค่าไว้
	hub := ws.NewOrderHub()
	sinks := []events.Sink{hub}
	if cfg.RabbitMQURL != "" {
		amqpSink, err := events.NewAMQPSink(cfg.RabbitMQURL, "order.exchange")
		if err != nil {
			log.Fatalf("rabbitmq: %v", err)
		}
		defer amqpSink.Close()
		sinks = append(sinks, amqpSink)
	}
	if cfg.KafkaBroker != "" {
		kafkaSink := events.NewKafkaSink(cfg.KafkaBroker, cfg.KafkaTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	bus := events.NewBus(sinks...)

	// HTTP
	r := gin.Default()
	routes.RegisterRoutes(r, db, cfg, routes.Infra{Cache: store, Events: bus, Hub: hub})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Println("🚀 Server running at", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("server stopped")
}
