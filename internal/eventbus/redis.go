// Package eventbus fans supervisor lifecycle events out to external
// subscribers.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"variantd/internal/supervisor"
)

// DefaultChannel is the pub/sub channel events go to when none is configured.
const DefaultChannel = "variantd:events"

// Message is the JSON payload published for each event.
type Message struct {
	Name   string         `json:"name"`
	Key    string         `json:"key,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	TS     time.Time      `json:"ts"`
}

// RedisConfig configures a RedisPublisher.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Channel  string
	// Timeout bounds each PUBLISH round trip.
	Timeout time.Duration
	// Buffer is how many encoded events may wait for delivery before new
	// ones are dropped.
	Buffer int
	Logger zerolog.Logger
}

// redisClient is the subset of go-redis the publisher uses.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes events to a Redis channel from a background
// goroutine so Publish never blocks the supervisor.
type RedisPublisher struct {
	client  redisClient
	channel string
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time

	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	dropped   atomic.Uint64
}

var _ supervisor.EventPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher connects a publisher to cfg.Addr.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Username:   strings.TrimSpace(cfg.Username),
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: 2,
	})
	return newRedisPublisher(client, cfg), nil
}

func newRedisPublisher(client redisClient, cfg RedisConfig) *RedisPublisher {
	p := &RedisPublisher{
		client:  client,
		channel: strings.TrimSpace(cfg.Channel),
		timeout: cfg.Timeout,
		log:     cfg.Logger,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if p.channel == "" {
		p.channel = DefaultChannel
	}
	if p.timeout <= 0 {
		p.timeout = time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	p.queue = make(chan []byte, cfg.Buffer)
	go p.run()
	return p
}

// Publish encodes e and queues it for delivery. Events are dropped when the
// queue is full or the publisher is closed.
func (p *RedisPublisher) Publish(e supervisor.Event) {
	payload, err := json.Marshal(Message{Name: e.Name, Key: e.Key, Fields: e.Fields, TS: p.now().UTC()})
	if err != nil {
		p.log.Warn().Str("event", "eventbus_encode").Str("name", e.Name).Err(err).Msg("event not encodable")
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- payload:
	default:
		p.dropped.Add(1)
		p.log.Warn().Str("event", "eventbus_drop").Str("name", e.Name).Msg("event queue full")
	}
}

// Dropped is the number of events discarded because the queue was full.
func (p *RedisPublisher) Dropped() uint64 { return p.dropped.Load() }

func (p *RedisPublisher) run() {
	defer close(p.done)
	for payload := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.client.Publish(ctx, p.channel, payload).Err()
		cancel()
		if err != nil {
			p.log.Warn().Str("event", "eventbus_publish").Str("channel", p.channel).Err(err).Msg("redis publish failed")
		}
	}
}

// Close delivers queued events, then closes the client. It waits at most
// until ctx is done.
func (p *RedisPublisher) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.client.Close()
}
