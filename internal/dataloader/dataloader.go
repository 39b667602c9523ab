package dataloader

import (
	"context"
	"fmt"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/UkralStul/graphql-userlist-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры операции.
type Loaders struct {
	SnapshotByList *dataloader.Loader
}

// NewLoaders создает лоадеры поверх зарегистрированных списков.
// Кэш лоадера живет одну операцию, поэтому все поля запроса видят один и тот же снимок.
func NewLoaders(lists map[string]storage.ListStore) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			list, ok := lists[k.String()]
			if !ok {
				results[i] = &dataloader.Result{Error: fmt.Errorf("unknown list %q", k.String())}
				continue
			}
			results[i] = &dataloader.Result{Data: list.Snapshot(ctx)}
		}
		return results
	}

	return &Loaders{
		SnapshotByList: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Snapshot загружает снимок списка через лоадер.
func (l *Loaders) Snapshot(ctx context.Context, list string) ([]string, error) {
	data, err := l.SnapshotByList.Load(ctx, dataloader.StringKey(list))()
	if err != nil {
		return nil, err
	}
	return data.([]string), nil
}

// Extension внедряет свежие лоадеры в контекст каждой GraphQL-операции.
// HTTP-middleware здесь не подходит: по одному websocket-соединению идет много операций.
type Extension struct {
	Lists map[string]storage.ListStore
}

var _ interface {
	graphql.HandlerExtension
	graphql.OperationInterceptor
} = Extension{}

func (Extension) ExtensionName() string {
	return "ListLoaders"
}

func (Extension) Validate(schema graphql.ExecutableSchema) error {
	return nil
}

func (e Extension) InterceptOperation(ctx context.Context, next graphql.OperationHandler) graphql.ResponseHandler {
	return next(With(ctx, NewLoaders(e.Lists)))
}

// With кладет лоадеры в контекст.
func With(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, key, loaders)
}

// For извлекает лоадеры из контекста. Возвращает nil, если их там нет.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}
