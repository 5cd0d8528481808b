package engine

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"fenrir/internal/config"
	"fenrir/internal/wire"
)

// AMQPSink publishes every event it receives to a single AMQP queue via
// the default exchange, routing key = queue name. It is the only Sink
// this repo wires into Broadcast.
type AMQPSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// DialAMQPSink connects to the broker and declares the queue named by
// settings.Channel.
func DialAMQPSink(settings config.AMQPSettings) (*AMQPSink, error) {
	conn, err := amqp.Dial(settings.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("engine: dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("engine: open amqp channel: %w", err)
	}

	if _, err := channel.QueueDeclare(settings.Channel, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("engine: declare queue %s: %w", settings.Channel, err)
	}

	return &AMQPSink{conn: conn, channel: channel, queue: settings.Channel}, nil
}

// Close tears down the channel and connection.
func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}

// Publish encodes evt and publishes it to the default exchange under the
// queue's own name as routing key.
func (s *AMQPSink) Publish(evt wire.WireMessage) error {
	body, err := wire.Marshal(evt)
	if err != nil {
		return fmt.Errorf("engine: marshal event for amqp: %w", err)
	}

	return s.channel.Publish("", s.queue, false, false, amqp.Publishing{
		ContentType: "application/x-protobuf",
		Body:        body,
	})
}
