package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rktclgh/fairplay-banner/config"
	"github.com/rktclgh/fairplay-banner/internal/cache"
	"github.com/rktclgh/fairplay-banner/internal/database"
	"github.com/rktclgh/fairplay-banner/internal/handler"
	"github.com/rktclgh/fairplay-banner/internal/queue"
	"github.com/rktclgh/fairplay-banner/internal/repository"
	"github.com/rktclgh/fairplay-banner/internal/service"
	"github.com/rktclgh/fairplay-banner/internal/worker"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slotRepo := repository.NewSlotRepository(pool)
	bannerTypeRepo := repository.NewBannerTypeRepository(pool)
	bannerRepo := repository.NewBannerRepository(pool)
	applicationRepo := repository.NewApplicationRepository(pool)

	calendarCache := cache.NewRedisCalendarCache(rdb)

	notifications, err := queue.NewRedisStreamNotificationQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize notification queue: %v", err)
	}

	reservationService := service.NewReservationService(pool, slotRepo)
	bannerTypeService := service.NewBannerTypeService(bannerTypeRepo)
	catalogService := service.NewCatalogService(slotRepo, bannerTypeRepo, calendarCache)
	applicationService := service.NewApplicationService(
		pool,
		applicationRepo,
		bannerRepo,
		bannerTypeRepo,
		reservationService,
		notifications,
		calendarCache,
		cfg.Reservation.HoldDuration,
	)

	reaper := worker.NewSlotReaper(reservationService, cfg.Reservation.ReaperInterval)
	reaper.Start(ctx)

	notificationWorker := worker.NewNotificationWorker(&worker.LogNotifier{}, notifications)
	if err := notificationWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start notification worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewBannerTypeHandler(bannerTypeService).RegisterRoutes(router)
	handler.NewSlotHandler(catalogService).RegisterRoutes(router)
	handler.NewApplicationHandler(applicationService).RegisterRoutes(router)
	handler.NewPaymentHandler(applicationService).RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.WithComponent("server").Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
