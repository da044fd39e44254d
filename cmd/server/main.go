package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/config"
	"github.com/kmalyshev/pricetrack/internal/database"
	"github.com/kmalyshev/pricetrack/internal/extract"
	"github.com/kmalyshev/pricetrack/internal/identity"
	"github.com/kmalyshev/pricetrack/internal/notify"
	"github.com/kmalyshev/pricetrack/internal/products"
	"github.com/kmalyshev/pricetrack/internal/reconcile"
	"github.com/kmalyshev/pricetrack/internal/scheduler"
)

func main() {
	_ = godotenv.Load() // load .env if present; not fatal if missing

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// graceful shutdown coordination
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	repo := products.NewRepository(pool)
	extractor := extract.New(extract.Config{
		APIURL:  cfg.ExtractAPIURL,
		APIKey:  cfg.ExtractAPIKey,
		RPS:     cfg.ExtractRPS,
		Timeout: cfg.ExtractTimeout,
		Retries: cfg.ExtractRetries,
	}, log)
	mailer := notify.NewMailer(notify.Config{
		APIURL: cfg.NotifyAPIURL,
		APIKey: cfg.NotifyAPIKey,
		From:   cfg.NotifyFrom,
	}, log)
	idClient := identity.New(identity.Config{
		APIURL: cfg.IdentityAPIURL,
		APIKey: cfg.IdentityAPIKey,
	})
	engine := reconcile.New(repo, extractor, mailer, idClient, log)

	// optional in-process scheduler
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx, engine, scheduler.Config{Interval: cfg.SweepInterval}, log)
	}()

	h := products.NewHandler(repo, log)
	r := gin.Default()

	api := r.Group("/api")
	{
		authed := api.Group("/products", products.AuthRequired())
		{
			authed.GET("", h.ListProducts)
			authed.POST("", reconcile.IngestHandler(engine, log))
			authed.GET("/:id", h.GetProduct)
			authed.GET("/:id/history", h.GetPriceHistory)
			authed.DELETE("/:id", h.DeleteProduct)
		}

		trigger := reconcile.TriggerHandler(engine, cfg.CronSecret, cfg.IsProduction(), log)
		api.POST("/cron/price-tracking", trigger)
		api.GET("/cron/price-tracking", trigger)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Infof("server started on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	// stop accepting new requests, allow 15s to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server Shutdown: %v", err)
	}

	// wait for the scheduler to observe the cancelled ctx
	wg.Wait()

	pool.Close()
	log.Info("graceful shutdown complete")
}
