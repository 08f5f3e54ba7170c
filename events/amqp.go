package events

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// defaultDialTimeout bounds a dial when the caller's context has no deadline.
const defaultDialTimeout = 5 * time.Second

// AMQP publishes events as persistent JSON messages to a durable queue on the
// default exchange. The connection is opened lazily and re-dialed after failures.
// mu guards conn and ch only; dials and publishes run outside it.
type AMQP struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQP(url, queue string) *AMQP {
	return &AMQP{url: url, queue: queue}
}

// dialTimeout is the time left before ctx's deadline.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	d := time.Until(deadline)
	if d <= 0 {
		return 0, context.DeadlineExceeded
	}
	return d, nil
}

func (p *AMQP) current() *amqp.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch
	}
	return nil
}

func (p *AMQP) channel(ctx context.Context) (*amqp.Channel, error) {
	if ch := p.current(); ch != nil {
		return ch, nil
	}

	d, err := dialTimeout(ctx)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	// DefaultDial 同时限制 TCP 连接和 AMQP 握手
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(d),
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		// 并发拨号，保留先到的连接
		_ = ch.Close()
		_ = conn.Close()
		return p.ch, nil
	}
	p.resetLocked()
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQP) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// drop forgets ch if it is still the current channel.
func (p *AMQP) drop(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == ch {
		p.resetLocked()
	}
}

func (p *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := e.Encode()
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(e.Type),
		Body:         body,
	}

	// 失败后重连一次
	for attempt := 0; attempt < 2; attempt++ {
		var ch *amqp.Channel
		ch, err = p.channel(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		if err = ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err == nil {
			return nil
		}
		log.Printf("[events] publish %s failed: %v", e.Type, err)
		p.drop(ch)
	}
	return err
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
