package metrics

import (
	"github.com/UkralStul/graphql-userlist-service/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "userlist"

// TopicCounter - то, что коллектор подписчиков читает у брокера в момент scrape.
type TopicCounter interface {
	Topics() []string
	SubscriberCount(topic string) int
}

// Metrics собирает счетчики сервиса. Методы безопасны для nil-получателя.
type Metrics struct {
	listAppends            *prometheus.CounterVec
	notificationsPublished *prometheus.CounterVec
	validationErrors       *prometheus.CounterVec
}

func New(reg prometheus.Registerer, topics TopicCounter) *Metrics {
	m := &Metrics{
		listAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_appends_total",
			Help:      "Number of values appended to a list.",
		}, []string{"list"}),
		notificationsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Number of notifications published, by topic kind.",
		}, []string{"topic_kind"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Number of rejected mutation inputs.",
		}, []string{"field"}),
	}

	reg.MustRegister(m.listAppends, m.notificationsPublished, m.validationErrors)
	if topics != nil {
		reg.MustRegister(&subscriberCollector{topics: topics})
	}
	return m
}

func (m *Metrics) ObserveAppend(list string) {
	if m == nil {
		return
	}
	m.listAppends.WithLabelValues(list).Inc()
}

func (m *Metrics) ObservePublish(topic string) {
	if m == nil {
		return
	}
	kind := "broadcast"
	if pubsub.IsReply(topic) {
		kind = "reply"
	}
	m.notificationsPublished.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveValidationError(field string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(field).Inc()
}

var subscribersDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "", "subscribers"),
	"Active subscriptions per topic. Reply topics are aggregated.",
	[]string{"topic"}, nil,
)

// subscriberCollector отдает число подписчиков на момент scrape.
// Адресные топики сворачиваются в одну метку, их id выбирает клиент.
type subscriberCollector struct {
	topics TopicCounter
}

func (c *subscriberCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- subscribersDesc
}

func (c *subscriberCollector) Collect(ch chan<- prometheus.Metric) {
	counts := make(map[string]int)
	for _, topic := range c.topics.Topics() {
		label := topic
		if pubsub.IsReply(topic) {
			label = "reply"
		}
		counts[label] += c.topics.SubscriberCount(topic)
	}
	for label, n := range counts {
		ch <- prometheus.MustNewConstMetric(subscribersDesc, prometheus.GaugeValue, float64(n), label)
	}
}
