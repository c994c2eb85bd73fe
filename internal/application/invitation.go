package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	"github.com/oksasatya/qualopt/pkg/helpers"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

// NewInvitationBatch maps a study, its owner and its participants onto a
// dispatcher batch. A missing body is sent as an empty string.
func NewInvitationBatch(st *entity.Study, owner *entity.User, participants []entity.Participant) mailer.Batch {
	recipients := make([]mailer.Recipient, 0, len(participants))
	for i := range participants {
		recipients = append(recipients, participants[i].Recipient())
	}
	return mailer.Batch{
		ID:         uuid.NewString(),
		Ref:        st.ID,
		Template:   mailer.Template{Subject: st.EmailSubject, Body: st.Body()},
		Sender:     owner.Email,
		Recipients: recipients,
	}
}

func invitationReportKey(studyID string) string {
	return "study:invitations:last:" + studyID
}

// InvitationReports keeps the most recent batch report per study in Redis.
type InvitationReports struct {
	Redis  *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewInvitationReports(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *InvitationReports {
	return &InvitationReports{Redis: rdb, TTL: ttl, Logger: logger}
}

func (r *InvitationReports) Save(ctx context.Context, rep mailer.Report) error {
	if r.Redis == nil || rep.Ref == "" {
		return nil
	}
	return helpers.RedisSetJSON(ctx, r.Redis, invitationReportKey(rep.Ref), rep, r.TTL)
}

func (r *InvitationReports) Last(ctx context.Context, studyID string) (*mailer.Report, bool, error) {
	if r.Redis == nil {
		return nil, false, nil
	}
	var rep mailer.Report
	ok, err := helpers.RedisGetJSON(ctx, r.Redis, invitationReportKey(studyID), &rep)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rep, true, nil
}

// Hook adapts Save to a mailer completion callback.
func (r *InvitationReports) Hook() func(mailer.Report) {
	return func(rep mailer.Report) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.Save(ctx, rep); err != nil && r.Logger != nil {
			helpers.LogError(r.Logger, "failed to store invitation report", err, logrus.Fields{"batch_id": rep.BatchID, "study_id": rep.Ref})
		}
	}
}
