package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"messagewall/internal/models"
)

// Channel is the NOTIFY channel written by the notify_table_change trigger.
const Channel = "table_changes"

const (
	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Listener turns Postgres notifications into broker events.
type Listener struct {
	listener *pq.Listener
	broker   *Broker
}

func NewListener(dsn string, broker *Broker) *Listener {
	listener := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("realtime: событие слушателя %d: %v", event, err)
			}
		})

	return &Listener{listener: listener, broker: broker}
}

func (l *Listener) Listen() error {
	if err := l.listener.Listen(Channel); err != nil {
		return fmt.Errorf("ошибка подписки на канал %s: %w", Channel, err)
	}
	log.Printf("realtime: подписка на канал %s", Channel)
	return nil
}

// Run blocks until ctx is done. A nil notification means the connection was
// re-established; subscribers get a resync event for every table since
// notifications sent meanwhile are lost.
func (l *Listener) Run(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case n := <-l.listener.Notify:
			if n == nil {
				log.Println("realtime: соединение восстановлено, требуется ресинхронизация")
				l.broker.Publish(models.ChangeEvent{Table: models.TableMessages, Event: models.EventResync})
				l.broker.Publish(models.ChangeEvent{Table: models.TableSettings, Event: models.EventResync})
				continue
			}

			event, err := ParseNotification(n.Extra)
			if err != nil {
				log.Printf("realtime: %v", err)
				continue
			}
			l.broker.Publish(event)

		case <-ticker.C:
			if err := l.listener.Ping(); err != nil {
				log.Printf("realtime: ping не прошёл: %v", err)
			}
		}
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}

func ParseNotification(payload string) (models.ChangeEvent, error) {
	var event models.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return models.ChangeEvent{}, fmt.Errorf("ошибка разбора уведомления: %w", err)
	}

	switch event.Event {
	case models.EventInsert, models.EventUpdate, models.EventDelete:
	default:
		return models.ChangeEvent{}, fmt.Errorf("неизвестный тип события %q", event.Event)
	}

	if event.Table == "" {
		return models.ChangeEvent{}, fmt.Errorf("уведомление без имени таблицы")
	}

	return event, nil
}
