package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aurex/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// envelope wraps every outbound notification with a stable identity so
// downstream consumers can deduplicate
type envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
}

// Notifier fans room and settlement changes out to NATS. Delivery is
// best-effort: a failed publish is logged and dropped, never retried and
// never surfaced to the operation that caused it.
type Notifier struct {
	nc *nats.Conn
}

// Connect dials the NATS server with reconnect handling
func Connect(url string) (*Notifier, error) {
	opts := []nats.Option{
		nats.Name("aurex"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("url", url).Info("Connected to NATS")
	return &Notifier{nc: nc}, nil
}

// Register subscribes the notifier to the domain events it relays. Handlers
// run on bus goroutines after the originating transaction has committed.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeRoomUpdated, func(ctx context.Context, event events.Event) {
		ru, ok := event.(events.RoomUpdatedEvent)
		if !ok {
			return
		}
		subject := fmt.Sprintf("rooms.%d.updated", ru.Snapshot.RoomID)
		n.publish(subject, string(events.EventTypeRoomUpdated), ru.Snapshot)
	})

	bus.Subscribe(events.EventTypeRoomSettled, func(ctx context.Context, event events.Event) {
		rs, ok := event.(events.RoomSettledEvent)
		if !ok {
			return
		}
		subject := fmt.Sprintf("rooms.%d.settled", rs.RoomID)
		n.publish(subject, string(events.EventTypeRoomSettled), rs)
	})
}

func (n *Notifier) publish(subject, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Error("Failed to marshal notification payload")
		return
	}

	env := envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "aurex",
		Payload:   body,
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Error("Failed to marshal notification envelope")
		return
	}

	if err := n.nc.Publish(subject, data); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Error("Failed to publish notification")
		return
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"eventId": env.EventID,
	}).Debug("Notification published")
}

// Close drains and closes the NATS connection
func (n *Notifier) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			log.WithError(err).Warn("Failed to drain NATS connection")
		}
	}
}
