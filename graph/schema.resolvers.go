package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gogql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-userlist-service/graph/model"
	"github.com/UkralStul/graphql-userlist-service/internal/dataloader"
	"github.com/UkralStul/graphql-userlist-service/internal/domain"
	"github.com/UkralStul/graphql-userlist-service/internal/pubsub"
	"github.com/UkralStul/graphql-userlist-service/internal/storage"
)

const greeting = "World!"

// === Query Resolvers ===

// Hello резолвер для поля hello. Всегда отвечает "World!".
func (r *Resolver) Hello() *string {
	s := greeting
	return &s
}

// UserCount резолвер для поля userCount.
func (r *Resolver) UserCount(ctx context.Context) (*int32, error) {
	users, err := r.snapshot(ctx, storage.UsersList)
	if err != nil {
		return nil, err
	}
	n := int32(len(users))
	return &n, nil
}

// Users резолвер для поля users.
func (r *Resolver) Users(ctx context.Context) (*[]*string, error) {
	users, err := r.snapshot(ctx, storage.UsersList)
	if err != nil {
		return nil, err
	}
	list := stringPtrs(users)
	return &list, nil
}

// EmailCount резолвер для поля emailCount.
func (r *Resolver) EmailCount(ctx context.Context) (*int32, error) {
	emails, err := r.snapshot(ctx, storage.MailingList)
	if err != nil {
		return nil, err
	}
	n := int32(len(emails))
	return &n, nil
}

// Emails резолвер для поля emails.
func (r *Resolver) Emails(ctx context.Context) (*[]*model.Email, error) {
	emails, err := r.snapshot(ctx, storage.MailingList)
	if err != nil {
		return nil, err
	}
	list := emailPtrs(emails)
	return &list, nil
}

// === Mutation Resolvers ===

// WhatsYourName резолвер для мутации whatsYourName. Имя уходит подписчикам pushUserNames с тем же id.
func (r *Resolver) WhatsYourName(ctx context.Context, args struct {
	Name string
	ID   *gogql.ID
}) (*string, error) {
	if err := r.requireValue("name", args.Name); err != nil {
		return nil, err
	}
	// Без id ответ некому адресовать: pushUserNames требует id.
	if args.ID != nil && *args.ID != "" {
		r.publish(pubsub.ReplyTopic(string(*args.ID)), domain.Notification{Name: args.Name})
	}

	msg := fmt.Sprintf("Your name is: %s!", args.Name)
	return &msg, nil
}

// AddUser резолвер для мутации addUser.
func (r *Resolver) AddUser(ctx context.Context, args struct{ Name string }) (*string, error) {
	if err := r.requireValue("name", args.Name); err != nil {
		return nil, err
	}
	r.appendAndPublish(ctx, &r.usersMu, r.UserStore, storage.UsersList, r.Topics.Users, args.Name)

	msg := fmt.Sprintf("User: %s was successfully added.", args.Name)
	return &msg, nil
}

// AddEmail получает уже проверенный адрес: скаляр Email отклоняет неверный формат
// при разборе аргументов, и сюда такой запрос не доходит.
func (r *Resolver) AddEmail(ctx context.Context, args struct{ Email model.Email }) (*string, error) {
	r.appendAndPublish(ctx, &r.mailingMu, r.EmailStore, storage.MailingList, r.Topics.MailingList, string(args.Email))

	msg := fmt.Sprintf("Email: %s was successfully added.", args.Email)
	return &msg, nil
}

// === Subscription Resolvers ===

// PushUserNames резолвер для подписки pushUserNames.
func (r *Resolver) PushUserNames(ctx context.Context, args struct{ ID gogql.ID }) (<-chan *string, error) {
	if err := r.requireValue("id", string(args.ID)); err != nil {
		return nil, err
	}
	events := r.Notifier.Subscribe(ctx, pubsub.ReplyTopic(string(args.ID)))
	return project(ctx, events, func(n domain.Notification) *string {
		name := n.Name
		return &name
	}), nil
}

// AllUsers резолвер для подписки allUsers.
func (r *Resolver) AllUsers(ctx context.Context) (<-chan *[]*string, error) {
	events := r.Notifier.Subscribe(ctx, pubsub.BroadcastTopic(r.Topics.Users))
	return project(ctx, events, func(n domain.Notification) *[]*string {
		list := stringPtrs(n.Entries)
		return &list
	}), nil
}

// MailingList резолвер для подписки mailingList.
func (r *Resolver) MailingList(ctx context.Context) (<-chan *[]*model.Email, error) {
	events := r.Notifier.Subscribe(ctx, pubsub.BroadcastTopic(r.Topics.MailingList))
	return project(ctx, events, func(n domain.Notification) *[]*model.Email {
		list := emailPtrs(n.Entries)
		return &list
	}), nil
}

// === Helpers ===

// snapshot читает список через лоадер операции, если он есть в контексте.
func (r *Resolver) snapshot(ctx context.Context, list string) ([]string, error) {
	if loaders := dataloader.For(ctx); loaders != nil {
		return loaders.Snapshot(ctx, list)
	}
	switch list {
	case storage.UsersList:
		return r.UserStore.Snapshot(ctx), nil
	case storage.MailingList:
		return r.EmailStore.Snapshot(ctx), nil
	}
	return nil, fmt.Errorf("unknown list %q", list)
}

func (r *Resolver) requireValue(field, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	r.Metrics.ObserveValidationError(field)
	return &domain.ValidationError{Field: field, Value: value, Err: domain.ErrEmptyValue}
}

func (r *Resolver) appendAndPublish(ctx context.Context, mu *sync.Mutex, store storage.ListStore, list, topic, value string) {
	mu.Lock()
	defer mu.Unlock()

	store.Append(ctx, value)
	r.Metrics.ObserveAppend(list)
	r.publish(pubsub.BroadcastTopic(topic), domain.Notification{Entries: store.Snapshot(ctx)})
}

func (r *Resolver) publish(topic string, n domain.Notification) {
	delivered := r.Notifier.Publish(topic, n)
	r.Metrics.ObservePublish(topic)
	r.Logger.Debug("notification published",
		zap.String("topic", topic),
		zap.Int("delivered", delivered),
	)
}

// project превращает поток уведомлений в поток значений поля подписки.
// Выходной канал закрывается вместе с входным или при отмене ctx.
func project[T any](ctx context.Context, events <-chan domain.Notification, fn func(domain.Notification) T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for n := range events {
			select {
			case out <- fn(n):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func stringPtrs(values []string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func emailPtrs(values []string) []*model.Email {
	out := make([]*model.Email, len(values))
	for i, v := range values {
		e := model.Email(v)
		out[i] = &e
	}
	return out
}
