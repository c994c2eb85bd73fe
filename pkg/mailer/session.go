package mailer

import (
	"context"
	"fmt"
)

// Session is a connected, authenticated transport used for the messages of a
// single batch. Sessions are not shared between batches.
type Session interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// SessionFactory opens a fresh Session for every batch.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// TransportError wraps a failure to connect, authenticate or deliver.
type TransportError struct {
	Op  string // dial, send, close
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mail transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
