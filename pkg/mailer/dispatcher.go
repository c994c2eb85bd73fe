package mailer

import (
	"context"
	"expvar"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AddressPolicy decides what a malformed recipient address does to its batch.
type AddressPolicy int

const (
	// SkipInvalid logs the bad recipient and moves on to the next one.
	SkipInvalid AddressPolicy = iota
	// AbortOnInvalid stops the batch at the first bad recipient.
	AbortOnInvalid
)

func ParseAddressPolicy(s string) (AddressPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipInvalid, nil
	case "abort":
		return AbortOnInvalid, nil
	default:
		return SkipInvalid, fmt.Errorf("unknown address policy %q", s)
	}
}

func (p AddressPolicy) String() string {
	if p == AbortOnInvalid {
		return "abort"
	}
	return "skip"
}

type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

// Report summarises one batch. It is never returned to whoever scheduled the
// batch; it only feeds completion hooks and logs.
type Report struct {
	BatchID    string    `json:"batch_id"`
	Ref        string    `json:"ref,omitempty"`
	State      State     `json:"state"`
	Sent       int       `json:"sent"`
	Skipped    []string  `json:"skipped,omitempty"`
	Failed     []string  `json:"failed,omitempty"`
	Duplicates []string  `json:"duplicates,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

var stats = expvar.NewMap("invitations")

// Dispatcher renders and sends one message per recipient over a single
// session per batch.
type Dispatcher struct {
	sessions SessionFactory
	logger   *logrus.Logger
	policy   AddressPolicy
	now      func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithAddressPolicy(p AddressPolicy) DispatcherOption {
	return func(d *Dispatcher) { d.policy = p }
}

func NewDispatcher(sessions SessionFactory, logger *logrus.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Dispatcher{sessions: sessions, logger: logger, policy: SkipInvalid, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Policy() AddressPolicy { return d.policy }

// SendBatch runs the batch to completion. Every failure is logged and recorded
// in the returned Report; nothing is raised.
func (d *Dispatcher) SendBatch(ctx context.Context, b Batch) Report {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	rep := Report{BatchID: b.ID, Ref: b.Ref, State: StatePending}
	log := d.logger.WithFields(logrus.Fields{"batch_id": b.ID, "ref": b.Ref})

	rep.State = StateInProgress
	rep.StartedAt = d.now().UTC()
	stats.Add("batches", 1)
	log.WithField("recipients", len(b.Recipients)).Debug("sending invitation batch")

	from, err := ResolveAddress(b.Sender)
	if err != nil {
		log.WithError(err).Error("invalid sender address")
		return d.finish(rep, err)
	}

	sess, err := d.sessions.Open(ctx)
	if err != nil {
		log.WithError(err).Error("failed to open mail session")
		return d.finish(rep, err)
	}
	defer func() {
		if cErr := sess.Close(); cErr != nil {
			log.WithError(cErr).Warn("failed to close mail session")
		}
	}()

	// Addresses already sent to in this batch, keyed case-insensitively.
	seen := make(map[string]struct{}, len(b.Recipients))
	for _, r := range b.Recipients {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("invitation batch interrupted")
			return d.finish(rep, err)
		}
		rlog := log.WithField("to", r.Email)

		to, err := ResolveAddress(r.Email)
		if err != nil {
			rlog.WithError(err).Error("failed to resolve participant address")
			rep.Skipped = append(rep.Skipped, r.Email)
			stats.Add("skipped", 1)
			if d.policy == AbortOnInvalid {
				return d.finish(rep, err)
			}
			continue
		}

		key := strings.ToLower(to.Email)
		if _, dup := seen[key]; dup {
			rlog.Warn("duplicate participant address in batch, not sent again")
			rep.Duplicates = append(rep.Duplicates, r.Email)
			stats.Add("duplicates", 1)
			continue
		}
		seen[key] = struct{}{}

		msg := RenderMessage(b.Template, from, to, r)
		if err := sess.Send(ctx, msg); err != nil {
			rlog.WithError(err).Error("failed to send invitation email")
			rep.Failed = append(rep.Failed, r.Email)
			stats.Add("failed", 1)
			continue
		}
		rep.Sent++
		stats.Add("sent", 1)
		rlog.Debug("sent invitation email")
	}

	rep = d.finish(rep, nil)
	log.WithFields(logrus.Fields{
		"sent":       rep.Sent,
		"skipped":    len(rep.Skipped),
		"failed":     len(rep.Failed),
		"duplicates": len(rep.Duplicates),
	}).Info("invitation batch completed")
	return rep
}

func (d *Dispatcher) finish(rep Report, err error) Report {
	rep.FinishedAt = d.now().UTC()
	if err != nil {
		rep.State = StateAborted
		rep.Error = err.Error()
		stats.Add("aborted", 1)
		return rep
	}
	rep.State = StateCompleted
	return rep
}
