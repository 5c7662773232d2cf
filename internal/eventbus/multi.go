package eventbus

import "variantd/internal/supervisor"

// Multi publishes each event to every publisher in order.
type Multi []supervisor.EventPublisher

func (m Multi) Publish(e supervisor.Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
