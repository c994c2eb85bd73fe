package mailer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// InvitationJob is the JSON payload put on the RabbitMQ queue for one batch.
type InvitationJob struct {
	BatchID    string      `json:"batch_id"`
	Ref        string      `json:"ref,omitempty"`
	Sender     string      `json:"sender"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body,omitempty"`
	Recipients []Recipient `json:"recipients"`
}

func NewInvitationJob(b Batch) InvitationJob {
	return InvitationJob{
		BatchID:    b.ID,
		Ref:        b.Ref,
		Sender:     b.Sender,
		Subject:    b.Template.Subject,
		Body:       b.Template.Body,
		Recipients: b.Recipients,
	}
}

func (j InvitationJob) Batch() Batch {
	return Batch{
		ID:         j.BatchID,
		Ref:        j.Ref,
		Template:   Template{Subject: j.Subject, Body: j.Body},
		Sender:     j.Sender,
		Recipients: j.Recipients,
	}
}

// Publisher is satisfied by helpers.RabbitQueue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueScheduler hands batches to the email worker through the queue.
type QueueScheduler struct {
	pub Publisher
}

func NewQueueScheduler(pub Publisher) *QueueScheduler {
	return &QueueScheduler{pub: pub}
}

func (q *QueueScheduler) Schedule(ctx context.Context, b Batch) error {
	if q.pub == nil {
		return errors.New("invitation queue is not configured")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return q.pub.PublishJSON(ctx, NewInvitationJob(b))
}
