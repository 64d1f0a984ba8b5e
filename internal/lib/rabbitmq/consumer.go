package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
)

const maxInFlight = 10

// ConsumerMessage запускает потребителя очереди. Одновременно обрабатывается
// не более maxInFlight сообщений. Сообщение, обработчик которого вернул
// ошибку, возвращается в очередь один раз; повторная ошибка после
// redelivery отбрасывает его.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					log.Info("delivery channel closed")
					return
				}
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					settle(log, d, handler(d.Body))
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// settle подтверждает или отклоняет доставку по результату обработчика.
func settle(log *slog.Logger, d amqp.Delivery, handlerErr error) {
	var err error
	switch {
	case handlerErr == nil:
		err = d.Ack(false)
	case d.Redelivered:
		log.Error("handler failed after redelivery, dropping", sl.Err(handlerErr))
		err = d.Nack(false, false)
	default:
		log.Error("handler failed, requeue", sl.Err(handlerErr))
		err = d.Nack(false, true)
	}
	if err != nil {
		log.Error("failed to settle delivery", sl.Err(err))
	}
}
