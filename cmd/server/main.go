package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/adpulse/campaign-dashboard/internal/api"
	"github.com/adpulse/campaign-dashboard/internal/cache"
	"github.com/adpulse/campaign-dashboard/internal/config"
	"github.com/adpulse/campaign-dashboard/internal/dashboard"
	"github.com/adpulse/campaign-dashboard/internal/dateutil"
	"github.com/adpulse/campaign-dashboard/internal/pkg/logger"
	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from a stale stub-api process occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Upstream reporting client, optionally wrapped with the Redis option cache
	client := upstream.NewClient(upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		APIKey:         cfg.Upstream.APIKey,
		TimeoutSeconds: cfg.Upstream.TimeoutSeconds,
	})
	logger.Info("upstream client initialized",
		"base_url", cfg.Upstream.BaseURL,
		"api_key", cfg.Upstream.APIKey)

	var dashboardAPI dashboard.API = client
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, option caching disabled", "error", err)
		} else {
			dashboardAPI = cache.New(client, rdb, cfg.Redis.CacheTTL())
			logger.Info("redis option cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL().String())
		}
	}

	metrics := api.NewMetrics(prometheus.DefaultRegisterer)

	initialRange, err := dateutil.ApplyTemplate(cfg.Dashboard.DefaultTemplate)
	if err != nil {
		log.Fatalf("Invalid default date template %q: %v", cfg.Dashboard.DefaultTemplate, err)
	}

	sessions := api.NewSessionRegistry(func() *dashboard.Controller {
		return dashboard.NewController(dashboardAPI,
			dashboard.WithInitialFilters(dashboard.FilterState{
				DateRange: initialRange,
				Networks:  []string{},
				Offers:    []string{},
				SubIDs:    []string{},
			}),
			dashboard.WithPageSize(cfg.Dashboard.PageSize),
			dashboard.WithBranchObserver(metrics.ObserveBranch),
		)
	}, cfg.Session.TTL(), func(n int) { metrics.ActiveSessions.Set(float64(n)) })

	ctx, cancel := context.WithCancel(context.Background())
	go sessions.Run(ctx, cfg.Session.SweepInterval())

	handlers := api.NewHandlers(sessions, client, metrics)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
