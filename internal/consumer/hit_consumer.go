package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Eursukkul/ewm-service/internal/analytics"
	"github.com/Eursukkul/ewm-service/pkg/stats"
	amqp "github.com/rabbitmq/amqp091-go"
)

type HitSink interface {
	Hit(ctx context.Context, hit stats.Hit) error
}

type DropRecorder interface {
	RecordHitDropped()
}

// ViewCache is the cached per-event view count refreshed after delivery.
type ViewCache interface {
	Forget(id uint)
}

// HitConsumer forwards queued hits to the hit counter service.
type HitConsumer struct {
	sink    HitSink
	timeout time.Duration
	drops   DropRecorder
	views   ViewCache
}

func NewHitConsumer(sink HitSink, timeout time.Duration, drops DropRecorder, views ViewCache) *HitConsumer {
	return &HitConsumer{sink: sink, timeout: timeout, drops: drops, views: views}
}

// Start drains msgs until the channel closes.
func (hc *HitConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			hc.handleMessage(msg)
		}
		slog.Info("channel closed, stopping consumer", "component", "hit_consumer")
	}()
}

func (hc *HitConsumer) handleMessage(msg amqp.Delivery) {
	var hit stats.Hit
	if err := json.Unmarshal(msg.Body, &hit); err != nil {
		slog.Warn("dropping undecodable hit", "component", "hit_consumer", "message_id", msg.MessageId, "error", err)
		if hc.drops != nil {
			hc.drops.RecordHitDropped()
		}
		_ = msg.Nack(false, false)
		return
	}

	ctx := context.Background()
	if hc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, hc.timeout)
		defer cancel()
	}
	if err := hc.sink.Hit(ctx, hit); err != nil {
		// A hit that already failed once is dropped so a dead hit counter
		// cannot spin the queue.
		requeue := !msg.Redelivered
		slog.Warn("forwarding hit failed", "component", "hit_consumer", "uri", hit.URI, "requeue", requeue, "error", err)
		if !requeue && hc.drops != nil {
			hc.drops.RecordHitDropped()
		}
		_ = msg.Nack(false, requeue)
		return
	}

	_ = msg.Ack(false)
	if hc.views != nil {
		if id, ok := analytics.EventIDFromURI(hit.URI); ok {
			hc.views.Forget(id)
		}
	}
}
