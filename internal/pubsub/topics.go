package pubsub

import "strings"

// Широковещательные топики и адресные ответы живут в разных пространствах имен,
// чтобы id, выбранный клиентом, не совпал с фиксированным топиком.
const (
	broadcastPrefix = "list:"
	replyPrefix     = "reply:"
)

// BroadcastTopic - топик, общий для всех подписчиков изменений списка.
func BroadcastTopic(name string) string {
	return broadcastPrefix + name
}

// ReplyTopic - топик адресного ответа, заданный клиентом.
func ReplyTopic(id string) string {
	return replyPrefix + id
}

func IsReply(topic string) bool {
	return strings.HasPrefix(topic, replyPrefix)
}
