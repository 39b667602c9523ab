package dataloader

import (
	"context"
	"sync"
	"testing"

	"github.com/99designs/gqlgen/graphql"
	"github.com/UkralStul/graphql-userlist-service/internal/storage"
	"github.com/UkralStul/graphql-userlist-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore считает обращения к Snapshot.
type countingStore struct {
	*inmemory.Store
	mu    sync.Mutex
	calls int
}

func (s *countingStore) Snapshot(ctx context.Context) []string {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.Snapshot(ctx)
}

func TestLoaders_SnapshotIsCachedPerOperation(t *testing.T) {
	users := &countingStore{Store: inmemory.New("John", "Jane")}
	loaders := NewLoaders(map[string]storage.ListStore{storage.UsersList: users})
	ctx := context.Background()

	first, err := loaders.Snapshot(ctx, storage.UsersList)
	require.NoError(t, err)
	assert.Equal(t, []string{"John", "Jane"}, first)

	// Изменения после первой загрузки не видны в рамках той же операции
	users.Append(ctx, "Amy")
	second, err := loaders.Snapshot(ctx, storage.UsersList)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, users.calls)

	// Новая операция получает новые лоадеры
	fresh, err := NewLoaders(map[string]storage.ListStore{storage.UsersList: users}).Snapshot(ctx, storage.UsersList)
	require.NoError(t, err)
	assert.Equal(t, []string{"John", "Jane", "Amy"}, fresh)
}

func TestLoaders_UnknownList(t *testing.T) {
	loaders := NewLoaders(map[string]storage.ListStore{})
	_, err := loaders.Snapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown list "missing"`)
}

func TestFor(t *testing.T) {
	assert.Nil(t, For(context.Background()))

	loaders := NewLoaders(nil)
	assert.Same(t, loaders, For(With(context.Background(), loaders)))
}

func TestExtension_InjectsLoaders(t *testing.T) {
	ext := Extension{Lists: map[string]storage.ListStore{storage.UsersList: inmemory.New("John")}}
	assert.Equal(t, "ListLoaders", ext.ExtensionName())

	var seen *Loaders
	ext.InterceptOperation(context.Background(), func(ctx context.Context) graphql.ResponseHandler {
		seen = For(ctx)
		return nil
	})
	require.NotNil(t, seen)

	snapshot, err := seen.Snapshot(context.Background(), storage.UsersList)
	require.NoError(t, err)
	assert.Equal(t, []string{"John"}, snapshot)
}
