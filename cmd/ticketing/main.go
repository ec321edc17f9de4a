package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guilhermewiebbeling/ticketing/app"
	"github.com/guilhermewiebbeling/ticketing/config"
	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/handler"
	"github.com/guilhermewiebbeling/ticketing/httpapi"
	natsbroker "github.com/guilhermewiebbeling/ticketing/infra/nats"
	"github.com/guilhermewiebbeling/ticketing/infra/postgres"
	"github.com/guilhermewiebbeling/ticketing/keylock"
	"github.com/guilhermewiebbeling/ticketing/outbox"
	"github.com/guilhermewiebbeling/ticketing/projection"
)

// eventTicketsTopic is where "event-ticket-reserved" facts are published.
const eventTicketsTopic = "event-tickets"

func topicMapper(eventType string) string {
	switch eventType {
	case domain.EventTicketReservedType:
		return eventTicketsTopic
	default:
		return ""
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Infrastructure
	db, err := postgres.NewDB(cfg.DSN())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database connection established")

	if err := db.Migrate(ctx); err != nil {
		slog.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	broker, err := natsbroker.NewNATSBroker(cfg.NATSURL)
	if err != nil {
		slog.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	slog.Info("NATS connection established")

	outboxStore := postgres.NewOutboxStore(db)
	eventRepo := postgres.NewEventRepository(db, outboxStore)
	customerRepo := postgres.NewCustomerRepository(db)
	partnerRepo := postgres.NewPartnerRepository(db)
	idempotencyStore := postgres.NewIdempotencyStore(db)
	eventViewRepo := postgres.NewEventViewRepository(db)
	locks := keylock.New()

	// Outbox dispatchers
	relays := make([]*outbox.Relay, 0, cfg.RelayInstances)
	for range cfg.RelayInstances {
		relay := outbox.NewRelay(
			outboxStore,
			broker,
			topicMapper,
			cfg.RelayBatchSize,
			cfg.RelayInterval,
			cfg.RelayWorkers,
		)
		relay.Start(ctx)
		relays = append(relays, relay)
	}
	defer func() {
		for _, r := range relays {
			r.Stop()
		}
	}()
	slog.Info("Outbox relays started", "instances", cfg.RelayInstances)

	// Subscribers
	eventViewProjection := projection.NewEventViewProjection(eventViewRepo)
	idempotentProjection := handler.NewIdempotentEventHandler(
		"EventViewProjection",
		idempotencyStore,
		db,
		eventViewProjection.Handle,
	)
	if err := broker.Subscribe(ctx, eventTicketsTopic, "EventViewProjection", idempotentProjection.Handle); err != nil {
		slog.Error("Failed to subscribe to topic", "error", err, "topic", eventTicketsTopic)
		os.Exit(1)
	}

	// Application services
	useCases := httpapi.UseCases{
		CreateEvent:    app.NewCreateEvent(partnerRepo, eventRepo, db),
		CreatePartner:  app.NewCreatePartner(partnerRepo),
		CreateCustomer: app.NewCreateCustomer(customerRepo),
		GetPartner:     app.NewGetPartnerByID(partnerRepo),
		GetCustomer:    app.NewGetCustomerByID(customerRepo),
		Subscribe: app.NewSubscribeCustomerToEvent(
			customerRepo,
			eventRepo,
			locks,
			db,
			cfg.ReservationLockTimeout,
		),
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(useCases),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
