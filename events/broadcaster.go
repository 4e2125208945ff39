// Package events carries the payload-less "cart-updated" signal between independent
// listeners in the process.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// CartUpdated is the topic of the cart-changed signal.
const CartUpdated = "cart-updated"

const ownerMetadataKey = "cart_owner"

// Broadcaster fans cart-changed signals out to subscribers. Publish blocks until every
// subscriber has handled the message.
type Broadcaster struct {
	pubSub *gochannel.GoChannel
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		}, watermill.NopLogger{}),
	}
}

// Publish signals that owner's cart changed.
func (b *Broadcaster) Publish(owner string) error {
	msg := message.NewMessage(uuid.NewString(), nil)
	msg.Metadata.Set(ownerMetadataKey, owner)
	if err := b.pubSub.Publish(CartUpdated, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", CartUpdated, err)
	}
	return nil
}

// Subscribe registers handler for owner's cart, or for every cart when owner is empty.
// The returned func deregisters the handler; it is safe to call more than once.
func (b *Broadcaster) Subscribe(owner string, handler func()) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubSub.Subscribe(ctx, CartUpdated)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", CartUpdated, err)
	}

	go func() {
		for msg := range messages {
			if owner == "" || msg.Metadata.Get(ownerMetadataKey) == owner {
				handler()
			}
			msg.Ack()
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

func (b *Broadcaster) Close() error {
	return b.pubSub.Close()
}
