package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/midgard-blog/interaction-sync/domain"
	"github.com/midgard-blog/interaction-sync/internal/debounce"
	"github.com/midgard-blog/interaction-sync/internal/gateway"
	"github.com/midgard-blog/interaction-sync/internal/notifier"
	"github.com/midgard-blog/interaction-sync/internal/repository"
	redisRepo "github.com/midgard-blog/interaction-sync/internal/repository/redis"
	"github.com/midgard-blog/interaction-sync/internal/rest"
	"github.com/midgard-blog/interaction-sync/internal/rest/middleware"
	"github.com/midgard-blog/interaction-sync/internal/statuscache"
	"github.com/midgard-blog/interaction-sync/internal/usecase/interaction"
	"github.com/midgard-blog/interaction-sync/internal/workers"
)

const (
	defaultTimeout        = 30
	defaultAddress        = ":9090"
	defaultCacheDB        = 0
	defaultGatewayTimeout = 10
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading config from environment")
	}
}

func main() {
	// prepare the remote gateway client
	gatewayBaseURL := os.Getenv("GATEWAY_BASE_URL")
	if gatewayBaseURL == "" {
		log.Fatal("GATEWAY_BASE_URL is required")
	}
	gatewayTimeout, err := strconv.Atoi(os.Getenv("GATEWAY_TIMEOUT"))
	if err != nil {
		log.Println("failed to parse gateway timeout, using default timeout")
		gatewayTimeout = defaultGatewayTimeout
	}
	gatewayClient := gateway.NewClient(gatewayBaseURL, time.Duration(gatewayTimeout)*time.Second)

	// prepare the snapshot store (optional; skipped when no cache host)
	var snapshots domain.SnapshotStore
	cacheHost := os.Getenv("CACHE_HOST")
	if cacheHost != "" {
		cachePort := os.Getenv("CACHE_PORT")
		cachePass := os.Getenv("CACHE_PASS")
		cacheDB, err := strconv.Atoi(os.Getenv("CACHE_DB"))
		if err != nil {
			log.Println("failed to parse cacheDB, using default cacheDB")
			cacheDB = defaultCacheDB
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cacheHost + ":" + cachePort,
			Password: cachePass,
			DB:       cacheDB,
		})
		defer func() {
			if err := client.Close(); err != nil {
				log.Println("got error when closing the cache connection", err)
			}
		}()

		if _, err = client.Ping(context.Background()).Result(); err != nil {
			log.Fatal("failed to open connection to cache", err)
		}

		snapshotTTL, err := strconv.Atoi(os.Getenv("SNAPSHOT_TTL_HOURS"))
		if err != nil {
			snapshotTTL = 0 // store default applies
		}
		snapshots = redisRepo.NewSnapshotStore(client, time.Duration(snapshotTTL)*time.Hour)
	}

	// the synchronizer core: notifier, cache, guard, repository
	hub := notifier.New()
	cache := statuscache.New(hub)
	guard := debounce.New()
	statusRepo := repository.NewStatusRepository(cache, snapshots, gatewayClient)

	cooldownMs, err := strconv.Atoi(os.Getenv("TOGGLE_COOLDOWN_MS"))
	if err != nil {
		cooldownMs = 0 // service default applies
	}
	interactionSvc := interaction.NewService(cache, guard, statusRepo, time.Duration(cooldownMs)*time.Millisecond)

	// start the follow-stats refresher
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settleMs, err := strconv.Atoi(os.Getenv("STATS_SETTLE_MS"))
	if err != nil {
		settleMs = 0 // worker default applies
	}
	statsRefresher := workers.NewStatsRefresher(gatewayClient, time.Duration(settleMs)*time.Millisecond)
	go statsRefresher.Start(ctx)

	// every confirmed follow change schedules a counter refresh
	hub.SubscribeAll(func(subject domain.Subject, st domain.InteractionState) {
		if subject.Kind == domain.KindFollow && !st.Pending {
			statsRefresher.Notify(subject.ID)
		}
	})

	// prepare gin
	route := gin.Default()
	route.Use(middleware.CORS())
	timeout, err := strconv.Atoi(os.Getenv("CONTEXT_TIMEOUT"))
	if err != nil {
		log.Println("failed to parse timeout, using default timeout")
		timeout = defaultTimeout
	}
	route.Use(middleware.SetRequestContextWithTimeout(time.Duration(timeout) * time.Second))
	route.Use(middleware.Identity())

	handler := rest.NewInteractionHandler(interactionSvc, gatewayClient, statsRefresher, hub)

	// Register routes
	route.GET("/interactions/:kind/:id", handler.GetStatus)
	route.POST("/interactions/:kind/:id/toggle", handler.Toggle)
	route.POST("/interactions/:kind/:id/state", handler.Seed)
	route.GET("/users/:id/follow-stats", handler.FollowStats)
	route.GET("/events", handler.Events)

	// Start Server
	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = defaultAddress
	}
	srv := &http.Server{
		Addr:    address,
		Handler: route,
	}
	go func() {
		log.Printf("Server is running on %s\n", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err) // nolint
		}
	}()

	// shutdown
	<-ctx.Done()
	log.Println("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Waiting for worker to cleanup...")
	time.Sleep(2 * time.Second)

	log.Println("Server exiting")
}
