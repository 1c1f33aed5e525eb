package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mkravets/storefront/internal/config"
	"github.com/mkravets/storefront/internal/events"
	"github.com/mkravets/storefront/internal/httpserver"
	"github.com/mkravets/storefront/internal/locks"
	"github.com/mkravets/storefront/internal/logging"
	loggingmw "github.com/mkravets/storefront/internal/middleware/logging"
	"github.com/mkravets/storefront/internal/payment"
	"github.com/mkravets/storefront/internal/repo"
	"github.com/mkravets/storefront/internal/search"
	"github.com/mkravets/storefront/internal/service/cart"
	"github.com/mkravets/storefront/internal/service/catalog"
	"github.com/mkravets/storefront/internal/service/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.PaymentURL, "PAYMENT_URL")

	logger := logging.New(cfg.LogLevel).With("service", "storefront")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repo.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(db)
	userLocks := locks.NewKeyed()

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Warn("KAFKA_BROKERS not set, event publishing disabled")
	}

	var index *search.Index
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = search.NewIndex(es, cfg.ESIndex)
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	catalogSvc := catalog.New(r)
	cartSvc := cart.New(r, userLocks)
	orderSvc := order.New(r, payment.NewClient(cfg.PaymentURL), userLocks)

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Products:   &httpserver.ProductHTTP{Svc: catalogSvc, Producer: producer, Index: index},
		Categories: &httpserver.CategoryHTTP{Svc: catalogSvc},
		Cart:       &httpserver.CartHTTP{Svc: cartSvc, Producer: producer},
		Orders:     &httpserver.OrderHTTP{Svc: orderSvc, Producer: producer},
		JWTSecret:  cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		_ = producer.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("storefront stopped")
}
