package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Notifier broadcasts "something changed" signals per topic.
type Notifier interface {
	// Publish signals every current subscriber of topic.
	Publish(ctx context.Context, topic string) error

	// Subscribe returns a channel that receives a value after each Publish on topic, and a
	// function that stops delivery. Signals that arrive while one is pending are coalesced.
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}

// signal does a non-blocking send; a pending signal already covers this one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// LocalNotifier is an in-process [Notifier].
type LocalNotifier struct {
	mu     sync.Mutex
	topics map[string]map[chan struct{}]struct{}
}

// NewLocalNotifier creates an empty hub.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{topics: make(map[string]map[chan struct{}]struct{})}
}

func (n *LocalNotifier) Publish(ctx context.Context, topic string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.topics[topic] {
		signal(ch)
	}
	return nil
}

func (n *LocalNotifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.topics[topic] == nil {
		n.topics[topic] = make(map[chan struct{}]struct{})
	}
	n.topics[topic][ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.topics[topic], ch)
			if len(n.topics[topic]) == 0 {
				delete(n.topics, topic)
			}
		})
	}
	return ch, cancel, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (n *LocalNotifier) Subscribers(topic string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.topics[topic])
}

// RedisNotifier publishes change signals on redis channels named prefix + topic.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	logger *log.Logger
}

// NewRedisNotifier wraps client. prefix namespaces the channels, e.g. "maestro:".
func NewRedisNotifier(client *redis.Client, prefix string, logger *log.Logger) *RedisNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisNotifier{client: client, prefix: prefix, logger: logger.With("component", "notifier")}
}

func (n *RedisNotifier) channel(topic string) string { return n.prefix + topic }

func (n *RedisNotifier) Publish(ctx context.Context, topic string) error {
	if err := n.client.Publish(ctx, n.channel(topic), "changed").Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	sub := n.client.Subscribe(ctx, n.channel(topic))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	messages := sub.Channel()

	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				signal(out)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				n.logger.Warn("failed to close subscription", "topic", topic, "err", err)
			}
		})
	}
	return out, cancel, nil
}
