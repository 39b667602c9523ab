package storage

import (
	"context"
)

// ListStore определяет контракт упорядоченного списка, который только растет.
type ListStore interface {
	// Append добавляет значение в конец списка.
	Append(ctx context.Context, value string)
	// Len возвращает текущее количество элементов.
	Len(ctx context.Context) int
	// Snapshot возвращает копию списка; изменение копии не влияет на хранилище.
	Snapshot(ctx context.Context) []string
}

// Имена списков, под которыми хранилища регистрируются в лоадерах и метриках.
const (
	UsersList   = "users"
	MailingList = "mailing_list"
)
