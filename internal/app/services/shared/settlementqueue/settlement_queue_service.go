package settlementqueue

import (
	"context"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/dto/requests"
	"maternity-service/internal/pkg/exceptions"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const headerSettlementState = "x-settlement-state"

type publisher struct {
	ch        *amqp.Channel
	queueName string
	log       *zap.Logger
	confirms  chan amqp.Confirmation
	mu        sync.Mutex
}

// NewPublisher declares the durable settlement queue and enables publisher
// confirms on a dedicated channel.
func NewPublisher(conn *amqp.Connection, queueName string, log *zap.Logger) (contracts.SettlementPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, err
	}

	return &publisher{
		ch:        ch,
		queueName: queueName,
		log:       log,
		confirms:  ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}, nil
}

func (p *publisher) PublishSettlement(ctx context.Context, event *requests.SettlementEvent) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	p.log.Info("settlementPublisher.PublishSettlement called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, event.IntentID),
		zap.String(constvars.LoggingWorkflowStateKey, event.State),
		zap.String(constvars.LoggingQueueNameKey, p.queueName),
	)

	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.IntentID,
		Timestamp:    event.SettledAt,
		Headers: amqp.Table{
			headerSettlementState: event.State,
		},
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, p.queueName)
	}

	select {
	case confirmed, ok := <-p.confirms:
		if !ok {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("channel closed before confirm"), p.queueName)
		}
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), p.queueName)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), p.queueName)
	}

	p.log.Info("settlementPublisher.PublishSettlement succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, event.IntentID),
	)
	return nil
}

func (p *publisher) Close() error {
	return p.ch.Close()
}
