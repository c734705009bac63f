package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"aurex/config"
	"aurex/database"
	"aurex/events"
	"aurex/notifier"
	"aurex/repository"
	"aurex/service"
	"aurex/web"

	"github.com/redis/go-redis/v9"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting aurex...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory)
	admissionService := service.NewAdmissionService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory)
	paymentService := service.NewPaymentService(ledgerService, cfg.PaymentGatewaySecret)

	// Initialize NATS change notifier
	log.Println("Connecting to NATS...")
	changeNotifier, err := notifier.Connect(cfg.NATSUrl)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer changeNotifier.Close()
	changeNotifier.Register(eventBus)

	// Initialize redis cache and its invalidation subscribers
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	cache := web.NewCache(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	cache.RegisterInvalidation(eventBus)

	// Initialize HTTP server
	server := web.NewServer(cfg, ledgerService, admissionService, settlementService, paymentService, cache)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Printf("Running in %s mode...", cfg.Environment)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	log.Println("Shutdown completed")
	return nil
}
