package graph

import (
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/gorilla/websocket"

	"github.com/UkralStul/graphql-userlist-service/internal/dataloader"
	"github.com/UkralStul/graphql-userlist-service/internal/storage"
)

// HandlerConfig - настройки HTTP-обработчика GraphQL.
type HandlerConfig struct {
	KeepAlive       time.Duration
	Introspection   bool
	ComplexityLimit int
	// Lists - хранилища, доступные лоадерам операции, по имени списка.
	Lists map[string]storage.ListStore
}

// NewHandler собирает обработчик: запросы и мутации по HTTP, подписки по websocket.
func NewHandler(es graphql.ExecutableSchema, cfg HandlerConfig) *handler.Server {
	srv := handler.New(es)

	srv.AddTransport(&transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		KeepAlivePingInterval: cfg.KeepAlive,
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New(1000))

	if cfg.Introspection {
		srv.Use(extension.Introspection{})
	}
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New(100),
	})
	if cfg.ComplexityLimit > 0 {
		srv.Use(extension.FixedComplexityLimit(cfg.ComplexityLimit))
	}
	srv.Use(dataloader.Extension{Lists: cfg.Lists})

	return srv
}
