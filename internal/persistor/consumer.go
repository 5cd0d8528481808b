package persistor

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/wire"
)

// ErrUnexpectedPayload is returned for any decoded WireMessage whose
// payload is not one the persistor knows how to store.
var ErrUnexpectedPayload = errors.New("persistor: unexpected payload")

// Consumer runs the AMQP consume loop and writes every delivery to store,
// one at a time.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	tag     string
	store   *Store
}

// Dial connects to the broker, opens a channel and declares the queue
// named by settings.Channel, following the default-exchange /
// routing-key-is-queue-name convention.
func Dial(settings config.AMQPSettings, store *Store) (*Consumer, error) {
	conn, err := amqp.Dial(settings.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("persistor: dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("persistor: open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(settings.Channel, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("persistor: declare queue %s: %w", settings.Channel, err)
	}

	log.Info().Str("host", settings.Host).Str("channel", settings.Channel).Msg("connected to amqp")

	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   settings.Channel,
		tag:     settings.ConsumerTag,
		store:   store,
	}, nil
}

// Close tears down the channel and connection.
func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		log.Error().Err(err).Msg("error closing amqp channel")
	}
	return c.conn.Close()
}

// Run consumes deliveries until ctx is cancelled or the delivery channel
// closes. A prefetch of one with manual ack keeps at most one in-flight
// unacked delivery: decode/unexpected-payload errors nack without requeue
// (they will never succeed on redelivery); DB errors nack with requeue,
// since those are treated as transient.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("persistor: set prefetch on %s: %w", c.queue, err)
	}

	deliveries, err := c.channel.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("persistor: consume %s: %w", c.queue, err)
	}

	log.Info().Str("channel", c.queue).Str("consumer_tag", c.tag).Msg("ready to receive messages")

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(delivery)
		}
	}
}

func (c *Consumer) handle(delivery amqp.Delivery) {
	msg, err := wire.Unmarshal(delivery.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode wire message, dropping")
		if err := delivery.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("failed to nack undecodable delivery")
		}
		return
	}

	if err := c.persist(msg); err != nil {
		if errors.Is(err, ErrUnexpectedPayload) {
			log.Error().Err(err).Msg("cannot handle payload, not a persistable event")
			if err := delivery.Nack(false, false); err != nil {
				log.Error().Err(err).Msg("failed to nack unexpected-payload delivery")
			}
			return
		}

		log.Error().Err(err).Msg("failed to persist event, requeuing")
		if err := delivery.Nack(false, true); err != nil {
			log.Error().Err(err).Msg("failed to nack-requeue delivery")
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		log.Error().Err(err).Msg("failed to ack delivery")
	}
}

func (c *Consumer) persist(msg wire.WireMessage) error {
	switch p := msg.Payload.(type) {
	case wire.OrderAccepted:
		log.Info().Uint64("order_id", p.OrderID).Msg("persisting accepted order")
		return c.store.InsertOrder(p.OrderID, int32(p.Side), p.Price, p.Quantity)
	case wire.TradeOccurred:
		log.Info().Uint64("maker_order_id", p.MakerOrderID).Uint64("taker_order_id", p.TakerOrderID).Msg("persisting trade")
		return c.store.InsertTrade(p.MakerOrderID, p.TakerOrderID, p.Quantity)
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedPayload, p)
	}
}
