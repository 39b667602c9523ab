// graph/resolver.go

package graph

import (
	"sync"

	"github.com/UkralStul/graphql-userlist-service/internal/domain"
	"github.com/UkralStul/graphql-userlist-service/internal/metrics"
	"github.com/UkralStul/graphql-userlist-service/internal/pubsub"
	"github.com/UkralStul/graphql-userlist-service/internal/storage"
	"go.uber.org/zap"
)

// Topics - имена фиксированных топиков, на которые публикуются снимки списков.
type Topics struct {
	Users       string
	MailingList string
}

// Resolver - это корневая структура резолвера.
// Она явно перечисляет все зависимости, которые могут понадобиться любому полю схемы.
type Resolver struct {
	UserStore  storage.ListStore
	EmailStore storage.ListStore
	Notifier   pubsub.Channel[domain.Notification]
	Topics     Topics
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	// Добавление, снимок и публикация выполняются под одной блокировкой на список,
	// чтобы подписчики получали снимки в порядке добавления.
	usersMu   sync.Mutex
	mailingMu sync.Mutex
}
