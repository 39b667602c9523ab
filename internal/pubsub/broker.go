package pubsub

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bufferSize = 64

// Publisher доставляет payload всем текущим подписчикам топика.
type Publisher[T any] interface {
	Publish(topic string, payload T) int
}

// Subscriber регистрирует нового получателя. Канал закрывается при отмене ctx.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, topic string) <-chan T
}

// Channel - минимальный интерфейс канала уведомлений, которым пользуются резолверы.
type Channel[T any] interface {
	Publisher[T]
	Subscriber[T]
}

// Broker - in-process реализация Channel.
type Broker[T any] struct {
	mu sync.RWMutex
	//   map[topic] map[subscriberID] channel
	subs       map[string]map[string]chan T
	done       chan struct{}
	bufferSize int
	logger     *zap.Logger
}

func NewBroker[T any](logger *zap.Logger) *Broker[T] {
	return NewBrokerWithOptions[T](logger, bufferSize)
}

func NewBrokerWithOptions[T any](logger *zap.Logger, channelBufferSize int) *Broker[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker[T]{
		subs:       make(map[string]map[string]chan T),
		done:       make(chan struct{}),
		bufferSize: channelBufferSize,
		logger:     logger,
	}
}

// Subscribe возвращает независимую подписку на topic. Сообщения, опубликованные
// до регистрации, не доставляются.
func (b *Broker[T]) Subscribe(ctx context.Context, topic string) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan T)
		close(ch)
		return ch
	default:
	}

	ch := make(chan T, b.bufferSize)
	subID := uuid.NewString()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]chan T)
	}
	b.subs[topic][subID] = ch

	// Горутина для очистки при отключении клиента
	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.unsubscribe(topic, subID)
	}()

	return ch
}

func (b *Broker[T]) unsubscribe(topic, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topicSubs, ok := b.subs[topic]
	if !ok {
		return
	}
	ch, ok := topicSubs[subID]
	if !ok {
		return
	}
	delete(topicSubs, subID)
	close(ch)
	if len(topicSubs) == 0 {
		delete(b.subs, topic)
	}
}

// Publish рассылает payload подписчикам topic и возвращает число доставок.
// Публикации сериализуются, поэтому каждый подписчик видит их в порядке вызова.
// Если буфер подписчика заполнен, событие для него теряется.
func (b *Broker[T]) Publish(topic string, payload T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return 0
	default:
	}

	delivered := 0
	for subID, ch := range b.subs[topic] {
		select {
		case ch <- payload:
			delivered++
		default:
			b.logger.Warn("subscriber is not keeping up, notification dropped",
				zap.String("topic", topic),
				zap.String("subscriber", subID),
			)
		}
	}
	return delivered
}

func (b *Broker[T]) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Topics возвращает отсортированный список топиков, у которых есть подписчики.
func (b *Broker[T]) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]string, 0, len(b.subs))
	for topic := range b.subs {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Shutdown закрывает все подписки. Повторный вызов безопасен.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	for topic, topicSubs := range b.subs {
		for _, ch := range topicSubs {
			close(ch)
		}
		delete(b.subs, topic)
	}
}
