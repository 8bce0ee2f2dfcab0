package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/figueredofxx/katalogo.digital/gateway"
	"github.com/figueredofxx/katalogo.digital/pkg/config"
	"github.com/figueredofxx/katalogo.digital/pkg/discovery"
	"github.com/figueredofxx/katalogo.digital/pkg/logger"
	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/notify"
	"github.com/figueredofxx/katalogo.digital/pkg/orders"
	"github.com/figueredofxx/katalogo.digital/pkg/repository"
	"github.com/figueredofxx/katalogo.digital/pkg/shipping"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/server-config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(&cfg.Log, cfg.Server.Name)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	store, err := openStore(cfg)
	if err != nil {
		zapLogger.Fatal("failed to open storage backend",
			zap.String("backend", cfg.Platform.Backend),
			zap.Error(err))
	}

	cache := repository.NewCache(&cfg.Redis)
	if err := cache.Ping(context.Background()); err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer cache.Close()

	resolver := tenancy.NewResolver(store.Tenants(), cfg.Platform.BaseDomain, cfg.Platform.AdminHosts)

	// Checkout normally receives a pre-resolved distance from the client.
	// Without a geocoding integration the server-side fallback rejects.
	distance := shipping.DistanceFunc(func(ctx context.Context, origin string, destination models.Address) (decimal.Decimal, error) {
		return decimal.Zero, shipping.ErrUnresolvable
	})
	orderSvc := orders.NewService(store.Orders(), distance, zapLogger)

	notifier := notify.NewNotifier(zapLogger)
	defer notifier.Shutdown()

	registry, err := discovery.NewRegistry(&cfg.Etcd)
	if err != nil {
		zapLogger.Warn("service discovery unavailable", zap.Error(err))
	} else {
		instance := &discovery.Instance{
			Name: cfg.Server.Name,
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		}
		if err := registry.Register(context.Background(), instance); err != nil {
			zapLogger.Warn("failed to register instance", zap.Error(err))
		}
		defer func() {
			registry.Deregister(context.Background(), instance)
			registry.Close()
		}()
	}

	gw := gateway.NewGateway(cfg, zapLogger, store, cache, resolver, orderSvc, notifier)
	gw.SetupRoutes()

	go func() {
		if err := gw.Start(); err != nil {
			zapLogger.Fatal("gateway stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down")
}

// openStore picks the configured storage backend. All three adapters satisfy
// the same contracts; the rest of the process never knows which one runs.
func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Platform.Backend {
	case "mysql":
		return repository.NewSQLStore(&cfg.MySQL)
	case "memory":
		return repository.NewMemoryStore(), nil
	default:
		return repository.NewMongoStore(&cfg.MongoDB)
	}
}
