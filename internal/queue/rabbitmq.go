// Package queue moves recovery notices through RabbitMQ so the request that
// issues a code does not wait on SMTP or SMS.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/notify"
)

const RecoveryQueue = "recovery.codes"

// channel is the part of *amqp.Channel the queue uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	IsClosed() bool
	Close() error
}

type RabbitMQ struct {
	url      string
	fallback notify.Dispatcher
	log      *zap.Logger

	// open returns a fresh channel with the queue declared.
	open       func() (channel, error)
	minBackoff time.Duration
	maxBackoff time.Duration

	connMu sync.Mutex
	conn   *amqp.Connection

	mu      sync.Mutex
	channel channel
}

// Dial connects to the broker and declares the recovery queue. When a
// publish fails the notice is handed to fallback instead, if one is given.
func Dial(url string, fallback notify.Dispatcher, log *zap.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		url:        url,
		fallback:   fallback,
		log:        log,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
	r.open = r.openChannel

	ch, err := r.open()
	if err != nil {
		r.Close()
		return nil, err
	}
	r.channel = ch
	return r, nil
}

// connection returns the live connection, redialling after the broker
// dropped the previous one.
func (r *RabbitMQ) connection() (*amqp.Connection, error) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn, nil
	}
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	r.conn = conn
	return conn, nil
}

func (r *RabbitMQ) openChannel() (channel, error) {
	conn, err := r.connection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(RecoveryQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	return ch, nil
}

// Dispatch publishes n as a persistent message; it satisfies notify.Dispatcher.
// A closed publishing channel is reopened first. If publishing still fails
// the notice goes to the fallback dispatcher.
func (r *RabbitMQ) Dispatch(ctx context.Context, n notify.RecoveryNotice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return apperr.Delivery(err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = r.publish(ctx, pub)
	if err == nil {
		return nil
	}
	if r.fallback == nil {
		return apperr.Delivery(err)
	}
	r.log.Warn("publish failed, delivering recovery notice inline", zap.Error(err))
	return r.fallback.Dispatch(ctx, n)
}

func (r *RabbitMQ) publish(ctx context.Context, pub amqp.Publishing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil || r.channel.IsClosed() {
		ch, err := r.open()
		if err != nil {
			return err
		}
		r.channel = ch
	}
	if err := r.channel.PublishWithContext(ctx, "", RecoveryQueue, false, false, pub); err != nil {
		_ = r.channel.Close()
		r.channel = nil
		return err
	}
	return nil
}

// Consume delivers queued notices to next until ctx is done. When the broker
// goes away it resubscribes with exponential backoff. Malformed messages are
// dropped; failed deliveries are rejected without requeue.
func (r *RabbitMQ) Consume(ctx context.Context, next notify.Dispatcher) {
	backoff := r.minBackoff
	for {
		subscribed, err := r.consumeOnce(ctx, next)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			backoff = r.minBackoff
		}
		r.log.Warn("recovery consumer interrupted, retrying", zap.Duration("in", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if !subscribed {
			backoff = min(backoff*2, r.maxBackoff)
		}
	}
}

// consumeOnce runs one subscription and reports whether it got that far.
func (r *RabbitMQ) consumeOnce(ctx context.Context, next notify.Dispatcher) (bool, error) {
	ch, err := r.open()
	if err != nil {
		return false, err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		r.log.Warn("set QoS failed", zap.Error(err))
	}
	msgs, err := ch.ConsumeWithContext(ctx, RecoveryQueue, "", false, false, false, false, nil)
	if err != nil {
		return false, fmt.Errorf("queue consume: %w", err)
	}

	r.log.Info("waiting for recovery notices", zap.String("queue", RecoveryQueue))
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case d, ok := <-msgs:
			if !ok {
				return true, errors.New("deliveries channel closed")
			}
			handle(ctx, d, next, r.log)
		}
	}
}

func handle(ctx context.Context, d amqp.Delivery, next notify.Dispatcher, log *zap.Logger) {
	var n notify.RecoveryNotice
	if err := json.Unmarshal(d.Body, &n); err != nil {
		log.Error("malformed recovery notice", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := next.Dispatch(ctx, n); err != nil {
		log.Error("recovery notice not delivered", zap.String("user", n.Username), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (r *RabbitMQ) Close() {
	r.mu.Lock()
	if r.channel != nil {
		_ = r.channel.Close()
		r.channel = nil
	}
	r.mu.Unlock()

	r.connMu.Lock()
	defer r.connMu.Unlock()
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
