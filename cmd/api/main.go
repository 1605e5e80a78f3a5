// Package main runs the lead dashboard API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/apperror"
	"github.com/xavierca1/beauty-leads/internal/config"
	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/infra/auth"
	"github.com/xavierca1/beauty-leads/internal/infra/database"
	"github.com/xavierca1/beauty-leads/internal/infra/docstore"
	"github.com/xavierca1/beauty-leads/internal/infra/http/handlers"
	"github.com/xavierca1/beauty-leads/internal/infra/http/middleware"
	"github.com/xavierca1/beauty-leads/internal/infra/mail"
	"github.com/xavierca1/beauty-leads/internal/infra/memstore"
	"github.com/xavierca1/beauty-leads/internal/infra/queue"
	"github.com/xavierca1/beauty-leads/internal/infra/worker"
	"github.com/xavierca1/beauty-leads/internal/logger"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

// storage bundles the lead store, its change feed and the health probe
// for the selected driver.
type storage struct {
	store   usecase.LeadStore
	watcher entity.LeadWatcher
	probe   handlers.Probe
	close   func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &storage{
			store:   database.NewLeadRepository(db),
			watcher: database.NewLeadWatcher(cfg.DatabaseURL, log.Named("pg-listener")),
			probe:   pingProbe(db),
			close:   func() { db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := docstore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		st := docstore.NewStore(client.Database(cfg.MongoDatabase), log.Named("mongo"))
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &storage{
			store:   st,
			watcher: st,
			probe:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:   func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}

	log.Warn("using in-memory lead store; data is lost on restart")
	st := memstore.New()
	return &storage{store: st, watcher: st, close: func() {}}, nil
}

func pingProbe(db *sql.DB) handlers.Probe {
	return db.PingContext
}

// alertRecorder counts every alert attempt.
type alertRecorder struct {
	next queue.Alerter
}

func (a alertRecorder) SendNewLeadAlert(ctx context.Context, ev usecase.LeadEvent) error {
	err := a.next.SendNewLeadAlert(ctx, ev)
	middleware.RecordAlert(err)
	return err
}

// Run is the testable entrypoint for the application.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() && cfg.StoreDriver == config.DriverMemory {
		log.Error("in-memory store is not allowed in production")
		return errors.New("LEADS_STORE_DRIVER=memory is not allowed in production")
	}
	log.Info("starting lead dashboard", zap.String("store", cfg.StoreDriver), zap.String("addr", cfg.HTTPAddr))

	// 1. Armazenamento (postgres, mongo ou memória)
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("open storage failed", zap.Error(err))
		return err
	}
	defer st.close()

	probes := map[string]handlers.Probe{"store": st.probe}

	// 2. Fila de eventos e worker de alertas por e-mail
	var events usecase.EventPublisher
	if cfg.EventsEnabled() {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Error("rabbitmq unavailable", zap.Error(err))
			return err
		}
		defer mq.Close()
		events = queue.NewProducer(mq.Ch)
		probes["rabbitmq"] = func(context.Context) error {
			if mq.Conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}

		if cfg.AlertsEnabled() {
			sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.AlertEmail)
			alerts := queue.NewWorker(mq.Ch, alertRecorder{next: sender}, log.Named("alerts"))
			go func() {
				if err := alerts.Start(ctx); err != nil {
					log.Error("alert worker stopped", zap.Error(err))
				}
			}()
		}
	}

	// 3. Sincronização ao vivo e cache do painel
	live := usecase.NewLiveCollection(st.store, st.watcher, log.Named("live"))
	cache := usecase.NewLeadCache()
	cacheWorker := worker.NewLeadCacheWorker(live, cache, cfg.CacheRetryInterval, log.Named("cache"))
	cacheWorker.OnSnapshot = middleware.SetCachedLeads
	cacheWorker.OnFailure = func(error) { middleware.RecordSubscriptionError() }
	go cacheWorker.Start(ctx)

	// 4. Auth e Handlers
	tokens := auth.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := handlers.NewHub()

	r := newRouter(cfg, routes{
		leads:  handlers.NewLeadHandler(st.store, cache, events, apperror.NewValidator(), log.Named("leads")),
		auth:   handlers.NewAuthHandler(tokens, log),
		health: handlers.NewHealthHandler(cache, probes),
		stream: handlers.NewStreamHandler(hub, live, tokens, cfg.CORSOrigins, log.Named("stream")),
		tokens: tokens,
	})

	// 5. Servidor
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		return err
	}

	log.Info("shutting down server")
	hub.CloseAll()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctxShutdown)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		os.Exit(1)
	}
}
