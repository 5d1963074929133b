package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "city.events"
	appID           = "event-service"

	// Wait window for Return / Confirm
	confirmWait = 2 * time.Second
)

// Publisher sends outbox rows to a durable topic exchange with publisher
// confirms and mandatory routing. It is not meant for concurrent callers
// beyond what its mutex serialises.
type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &Publisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("enable confirms: %w", err)
	}

	p.conn = conn
	p.ch = ch
	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 100))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 100))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// PublishEvent publishes a JSON envelope and waits for the broker's verdict.
// messageID must be stable across retries (event_outbox.message_id) so
// consumers can dedupe.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if routingKey == "" {
		return errors.New("missing routingKey")
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("missing messageID")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}

	// drop notifications left over from a timed-out publish
drain:
	for {
		select {
		case <-p.returnCh:
		case <-p.confirmCh:
		default:
			break drain
		}
	}

	err := p.ch.PublishWithContext(ctx, p.exchange, routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    messageID,
			AppId:        appID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	// A Return, when there is one, arrives before the Confirm.
	deadline := time.After(confirmWait)
	for {
		select {
		case ret := <-p.returnCh:
			return fmt.Errorf("NO_ROUTE: exchange=%s rk=%s code=%d", ret.Exchange, ret.RoutingKey, ret.ReplyCode)
		case conf := <-p.confirmCh:
			if !conf.Ack {
				return fmt.Errorf("publish nack: delivery_tag=%d", conf.DeliveryTag)
			}
			return nil
		case <-deadline:
			return errors.New("confirm timeout")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
