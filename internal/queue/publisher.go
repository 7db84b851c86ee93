// Package queue connects the auth subsystem to RabbitMQ: a publisher for
// security events and a background consumer that writes them to the audit
// log. Broker failures never interrupt the request flow; errors are logged
// and returned for the caller to ignore.
package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/pwstorage/pwstorage/internal/auth"
)

const authEventsQueue = "auth.events"

// Publisher publishes security events to the auth.events queue. It dials
// per publish: security events are low-volume and a short-lived connection
// avoids keeping broker state alive across the process lifetime.
type Publisher struct {
	url string
	log zerolog.Logger
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishEvent delivers one event, marked persistent so it survives a
// broker restart.
func (p *Publisher) PublishEvent(ctx context.Context, ev auth.Event) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(authEventsQueue, true, false, false, false, nil); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", authEventsQueue, false, false, pub); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
