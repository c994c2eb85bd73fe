package application

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/pkg/helpers"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

// InvitationWorker runs invitation batches taken off the queue.
type InvitationWorker struct {
	Dispatcher *mailer.Dispatcher
	OnComplete func(mailer.Report)
	Logger     *logrus.Logger
}

func NewInvitationWorker(d *mailer.Dispatcher, onComplete func(mailer.Report), logger *logrus.Logger) *InvitationWorker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &InvitationWorker{Dispatcher: d, OnComplete: onComplete, Logger: logger}
}

// Handle runs the batch carried by msg. Malformed messages are dropped without
// requeue. Anything else is acked once its batch has run, whatever the outcome,
// so redelivery never sends a batch twice.
func (w *InvitationWorker) Handle(msg amqp.Delivery) {
	var job mailer.InvitationJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		helpers.LogError(w.Logger, "bad invitation message", err, logrus.Fields{"message_id": msg.MessageId})
		if nErr := msg.Nack(false, false); nErr != nil {
			helpers.LogError(w.Logger, "failed to nack invitation message", nErr, logrus.Fields{"message_id": msg.MessageId})
		}
		return
	}

	// A batch runs to completion even if the worker is asked to stop.
	rep := w.Dispatcher.SendBatch(context.Background(), job.Batch())
	if w.OnComplete != nil {
		w.OnComplete(rep)
	}

	if err := msg.Ack(false); err != nil {
		helpers.LogError(w.Logger, "failed to ack invitation message", err, logrus.Fields{"batch_id": rep.BatchID})
	}
}
