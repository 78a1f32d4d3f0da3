package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
)

const paymentChannelPrefix = "payments:subscriber:"

// EventPublisher announces payment status changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.PaymentEvent) error
}

// PaymentSubscription receives the events of one subscriber.
type PaymentSubscription struct {
	SubscriberID string
	C            chan models.PaymentEvent
}

// PaymentEventHub publishes payment events on Redis and fans events received
// from Redis out to the subscriptions held by this instance.
type PaymentEventHub struct {
	rdb *redis.Client

	mu   sync.RWMutex
	subs map[string]map[*PaymentSubscription]struct{}
	once sync.Once
}

func NewPaymentEventHub(rdb *redis.Client) *PaymentEventHub {
	return &PaymentEventHub{rdb: rdb, subs: make(map[string]map[*PaymentSubscription]struct{})}
}

func (h *PaymentEventHub) Publish(ctx context.Context, ev models.PaymentEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, paymentChannelPrefix+ev.SubscriberID, data).Err()
}

// Subscribe registers a local listener for subscriberID's events.
func (h *PaymentEventHub) Subscribe(subscriberID string) *PaymentSubscription {
	s := &PaymentSubscription{SubscriberID: subscriberID, C: make(chan models.PaymentEvent, 16)}
	h.mu.Lock()
	set, ok := h.subs[subscriberID]
	if !ok {
		set = make(map[*PaymentSubscription]struct{})
		h.subs[subscriberID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *PaymentEventHub) Unsubscribe(s *PaymentSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.SubscriberID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.C)
	if len(set) == 0 {
		delete(h.subs, s.SubscriberID)
	}
}

// Deliver fans ev out to local subscriptions. Slow listeners drop events
// rather than block the hub.
func (h *PaymentEventHub) Deliver(ev models.PaymentEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.SubscriberID] {
		select {
		case s.C <- ev:
		default:
			logger.L().Warn("dropping payment event for slow listener",
				logger.SubscriberID(ev.SubscriberID), zap.String("payment_id", ev.PaymentID))
		}
	}
}

// Start runs the shared Redis listener once per hub until ctx is done.
func (h *PaymentEventHub) Start(ctx context.Context) {
	h.once.Do(func() {
		go h.run(ctx)
	})
}

func (h *PaymentEventHub) run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		func() {
			pubsub := h.rdb.PSubscribe(ctx, paymentChannelPrefix+"*")
			defer pubsub.Close()

			logger.L().Info("✅ Payment event subscriber started", zap.String("pattern", paymentChannelPrefix+"*"))

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.L().Warn("payment event subscriber error", zap.Error(err), zap.Duration("backoff", backoff))
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
					}
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}
				backoff = time.Second

				var ev models.PaymentEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.L().Warn("invalid payment event", zap.Error(err))
					continue
				}
				if ev.SubscriberID == "" {
					ev.SubscriberID = strings.TrimPrefix(msg.Channel, paymentChannelPrefix)
				}
				h.Deliver(ev)
			}
		}()
	}
}
