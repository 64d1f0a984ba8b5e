package rabbitmq

const (
	// Exchange — direct-exchange для всех уведомлений участникам.
	Exchange = "notifications"
	// DecisionQueue получает решения проверяющих по оплатам и тезисам.
	DecisionQueue = "review.decisions"
	// DecisionRoutingKey — ключ маршрутизации событий ReviewDecision.
	DecisionRoutingKey = "review.decision"

	prefetch = 10
)

// QueueConfig — очередь и ключ, с которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает notifier.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: DecisionQueue, RoutingKey: DecisionRoutingKey},
	}
}
