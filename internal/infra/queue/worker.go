package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/usecase"
)

// Alerter tells the business owner about a new lead.
type Alerter interface {
	SendNewLeadAlert(ctx context.Context, event usecase.LeadEvent) error
}

// Consumer is the consuming side of *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Worker drains AlertQueue and sends one alert per created lead.
type Worker struct {
	Channel Consumer
	Alerter Alerter
	Log     *zap.Logger
}

func NewWorker(ch Consumer, alerter Alerter, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{Channel: ch, Alerter: alerter, Log: log}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.Channel.Consume(AlertQueue, "lead-alerts", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Log.Info("alert worker listening", zap.String("queue", AlertQueue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks on success. Malformed bodies and failed sends are rejected
// without requeue and land in the DLQ.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event usecase.LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.Log.Error("invalid lead event", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if event.Type != usecase.LeadEventCreated {
		_ = d.Ack(false)
		return
	}

	if err := w.Alerter.SendNewLeadAlert(ctx, event); err != nil {
		w.Log.Error("new lead alert failed", zap.String("lead_id", event.LeadID), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	w.Log.Info("new lead alert sent", zap.String("lead_id", event.LeadID))
	_ = d.Ack(false)
}
