package eventbus

import (
	"context"

	"github.com/annel0/tileworld/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог компонента "events".
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	logger := logging.GetComponentLogger("events")
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("%s %s src=%s chunk=%s size=%dB", ev.ID, ev.EventType, ev.Source, ev.Metadata[MetaChunk], len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logging.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
