package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const amqpConsumerTag = "storefront-cart"

// AMQPTransport consumes stock update frames from a fanout exchange through
// an exclusive, auto-deleted queue so every client sees every update.
type AMQPTransport struct {
	url      string
	exchange string
	logg     *logger.Logger
}

func NewAMQPTransport(url, exchange string, logg *logger.Logger) (*AMQPTransport, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("amqp url required")
	}
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		return nil, fmt.Errorf("amqp exchange required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &AMQPTransport{url: url, exchange: exchange, logg: logg}, nil
}

func (t *AMQPTransport) Name() string {
	return "amqp"
}

func (t *AMQPTransport) Stream(ctx context.Context, emit func(catalog.Event)) error {
	conn, err := amqp.Dial(t.url)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareStockExchange(ch, t.exchange); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", t.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		amqpConsumerTag,
		true,  // autoAck
		true,  // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	t.logg.Info(t.logg.WithField(ctx, "exchange", t.exchange), "consuming stock updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
			}
			return errors.New("rabbitmq connection closed")
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			handleRaw(ctx, t.logg, msg.Body, emit)
		}
	}
}

func declareStockExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		"fanout",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}
