package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-userlist-service/graph"
	"github.com/UkralStul/graphql-userlist-service/internal/config"
	"github.com/UkralStul/graphql-userlist-service/internal/domain"
	"github.com/UkralStul/graphql-userlist-service/internal/logging"
	"github.com/UkralStul/graphql-userlist-service/internal/metrics"
	"github.com/UkralStul/graphql-userlist-service/internal/pubsub"
	"github.com/UkralStul/graphql-userlist-service/internal/storage"
	"github.com/UkralStul/graphql-userlist-service/internal/storage/inmemory"
)

// Server владеет общими для процесса объектами: списками, брокером и роутером.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	broker   *pubsub.Broker[domain.Notification]
	resolver *graph.Resolver
	router   chi.Router
}

// New создает списки и брокер один раз и передает их во все резолверы.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	broker := pubsub.NewBroker[domain.Notification](logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	resolver := &graph.Resolver{
		UserStore:  inmemory.New(cfg.Seed.Users...),
		EmailStore: inmemory.New(cfg.Seed.Emails...),
		Notifier:   broker,
		Topics: graph.Topics{
			Users:       cfg.Topics.Users,
			MailingList: cfg.Topics.MailingList,
		},
		Metrics: metrics.New(reg, broker),
		Logger:  logger,
	}

	schema, err := graph.NewExecutableSchema(graph.Config{
		Resolvers:      resolver,
		MaxDepth:       cfg.MaxDepth,
		MaxParallelism: cfg.MaxParallelism,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	srv := graph.NewHandler(schema, graph.HandlerConfig{
		KeepAlive:       cfg.KeepAlive,
		Introspection:   cfg.Introspection,
		ComplexityLimit: cfg.ComplexityLimit,
		Lists: map[string]storage.ListStore{
			storage.UsersList:   resolver.UserStore,
			storage.MailingList: resolver.EmailStore,
		},
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/alive", healthHandler(logger))
	router.Get("/ready", healthHandler(logger))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if cfg.Playground {
		router.Handle("/", playground.Handler("GraphQL playground", cfg.GraphQLPath))
	}
	router.Handle(cfg.GraphQLPath, srv)

	return &Server{
		cfg:      cfg,
		logger:   logger,
		broker:   broker,
		resolver: resolver,
		router:   router,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run слушает порт до отмены ctx. При остановке сначала закрываются подписки,
// затем HTTP-сервер дожидается текущих запросов.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started",
			zap.String("addr", addr),
			zap.String("graphql", s.cfg.GraphQLPath),
			zap.Bool("playground", s.cfg.Playground),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.broker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
