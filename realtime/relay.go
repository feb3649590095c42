package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "grownet.push."

// NatsRelay fans pushes out across instances. EmitToUser publishes on the
// user's subject; every instance subscribes to all user subjects and hands
// the frame to its local registry.
type NatsRelay struct {
	nc    *nats.Conn
	local *PresenceRegistry
	sub   *nats.Subscription
}

func NewNatsRelay(nc *nats.Conn, local *PresenceRegistry) (*NatsRelay, error) {
	r := &NatsRelay{nc: nc, local: local}

	sub, err := nc.Subscribe(subjectPrefix+"*", func(msg *nats.Msg) {
		userID := strings.TrimPrefix(msg.Subject, subjectPrefix)
		if err := local.deliver(userID, msg.Data); err != nil && err != ErrUserOffline {
			log.Printf("Error delivering relayed push to %s: %v", userID, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s*: %w", subjectPrefix, err)
	}
	r.sub = sub
	log.Printf("Listening for relayed pushes on subject '%s*'", subjectPrefix)
	return r, nil
}

// EmitToUser publishes the event. Delivery is best-effort: presence on other
// instances is unknown here, so no ErrUserOffline is reported.
func (r *NatsRelay) EmitToUser(userID, event string, payload interface{}) error {
	data, err := json.Marshal(Event{Name: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.nc.Publish(subjectPrefix+userID, data)
}

func (r *NatsRelay) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}
