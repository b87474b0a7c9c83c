package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Broker publishes events through a Redis channel so that every instance
// delivers to its own connections. Without Redis it delivers locally.
type Broker struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
}

func NewBroker(hub *Hub, rdb *redis.Client, channel string) *Broker {
	return &Broker{hub: hub, rdb: rdb, channel: channel}
}

func (b *Broker) Publish(ctx context.Context, ev Event) error {
	if b.rdb == nil {
		b.hub.Deliver(ev)
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, data).Err()
}

// Run consumes the channel until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) {
	if b.rdb == nil {
		return
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	log.Printf("[REALTIME] Subscribed to %s", b.channel)
	for {
		select {
		case <-ctx.Done():
			log.Println("[REALTIME] Stopping broker subscriber")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(msg.Payload)
		}
	}
}

func (b *Broker) dispatch(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[REALTIME] Invalid event on %s: %v", b.channel, err)
		return
	}
	b.hub.Deliver(ev)
}
