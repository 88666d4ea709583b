package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/schemagate/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// Loader implements ports.SchemaLoader using Redis string keys.
// Schema "person" lives at <prefix>person; changes are announced on <prefix>events.
type Loader struct {
	client  *backend.Client
	prefix  string
	timeout time.Duration
}

type Option func(*Loader)

// WithPrefix sets the key prefix for schemas.
func WithPrefix(prefix string) Option {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// WithTimeout bounds each Redis round trip made by GetSchema and ListSchemas.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// New creates a new Redis loader with options.
func New(address, password string, db int, opts ...Option) *Loader {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis loader from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Loader {
	l := &Loader{
		client:  client,
		prefix:  "schemagate:schema:",
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) key(id string) string {
	return l.prefix + id
}

func (l *Loader) eventsChannel() string {
	return l.prefix + "events"
}

// GetSchema retrieves the raw schema document from Redis.
func (l *Loader) GetSchema(id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	data, err := l.client.Get(ctx, l.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", schema.ErrSchemaNotFound, id)
		}
		return nil, fmt.Errorf("failed to get schema from redis: %w", err)
	}
	return data, nil
}

// ListSchemas scans the key space under the prefix. The events channel lives
// in the pub/sub namespace, so every matching key is a schema.
func (l *Loader) ListSchemas() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	var ids []string
	iter := l.client.Scan(ctx, 0, l.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), l.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list schemas in redis: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Put publishes a schema document and announces the change.
func (l *Loader) Put(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("schema id cannot be empty")
	}
	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.key(id), data, 0)
	pipe.Publish(ctx, l.eventsChannel(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save schema to redis: %w", err)
	}
	return nil
}

// Delete removes a schema document and announces the change.
func (l *Loader) Delete(ctx context.Context, id string) error {
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, l.key(id))
	pipe.Publish(ctx, l.eventsChannel(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// Watch implements ports.Watchable over Redis pub/sub.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	pubsub := l.client.Subscribe(ctx, l.eventsChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to schema events: %w", err)
	}

	msgs := pubsub.Channel()
	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
