package application

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

type studyFixture struct {
	store        *memStore
	svc          *StudyService
	scheduler    *captureScheduler
	reports      memReports
	hook         *test.Hook
	owner        *entity.User
	participants memParticipants
}

func newStudyFixture(t *testing.T) *studyFixture {
	t.Helper()
	store := newMemStore()
	logger, hook := test.NewNullLogger()
	f := &studyFixture{
		store:        store,
		scheduler:    &captureScheduler{},
		reports:      memReports{},
		hook:         hook,
		participants: memParticipants{store},
	}
	f.svc = NewStudyService(memStudies{store}, f.participants, memUsers{store}, f.scheduler, f.reports, logger)

	f.owner = &entity.User{Email: "user@email.com", Name: "Owner"}
	require.NoError(t, memUsers{store}.Create(context.Background(), f.owner))
	return f
}

func (f *studyFixture) participant(t *testing.T, p entity.Participant) string {
	t.Helper()
	require.NoError(t, f.participants.Create(context.Background(), &p))
	return p.ID
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestSendInvitationEmail_SchedulesOneBatch(t *testing.T) {
	f := newStudyFixture(t)
	ctx := context.Background()

	st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{
		Name:         "study",
		EmailSubject: "testSubject",
		EmailBody:    strPtr("Hello --firstName from --location"),
	})
	require.NoError(t, err)

	pid := f.participant(t, entity.Participant{
		Email:                 "participant@email.com",
		FirstName:             strPtr("Ada"),
		Location:              strPtr("London"),
		NumberOfContributions: intPtr(3),
	})
	require.NoError(t, f.svc.AddParticipant(ctx, f.owner.ID, st.ID, pid))

	batchID, err := f.svc.SendInvitationEmail(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, batchID)

	require.Len(t, f.scheduler.batches, 1)
	b := f.scheduler.batches[0]
	assert.Equal(t, batchID, b.ID)
	assert.Equal(t, st.ID, b.Ref)
	assert.Equal(t, "user@email.com", b.Sender)
	assert.Equal(t, "testSubject", b.Template.Subject)
	assert.Equal(t, "Hello --firstName from --location", b.Template.Body)
	require.Len(t, b.Recipients, 1)
	assert.Equal(t, "participant@email.com", b.Recipients[0].Email)
	assert.Equal(t, "Ada", *b.Recipients[0].FirstName)
	assert.Equal(t, 3, *b.Recipients[0].NumberOfContributions)

	var scheduled bool
	for _, e := range f.hook.AllEntries() {
		if e.Message == "invitation batch scheduled" {
			scheduled = true
			assert.Equal(t, batchID, e.Data["batch_id"])
		}
	}
	assert.True(t, scheduled)
}

func TestSendInvitationEmail_NilBodyIsEmpty(t *testing.T) {
	f := newStudyFixture(t)
	ctx := context.Background()

	st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study", EmailSubject: "s"})
	require.NoError(t, err)
	require.NoError(t, f.svc.AddParticipant(ctx, f.owner.ID, st.ID, f.participant(t, entity.Participant{Email: "p@email.com"})))

	_, err = f.svc.SendInvitationEmail(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)
	require.Len(t, f.scheduler.batches, 1)
	assert.Equal(t, "", f.scheduler.batches[0].Template.Body)
}

func TestSendInvitationEmail_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no participants", func(t *testing.T) {
		f := newStudyFixture(t)
		st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study"})
		require.NoError(t, err)

		_, err = f.svc.SendInvitationEmail(ctx, f.owner.ID, st.ID)
		assert.ErrorIs(t, err, ErrNoParticipants)
		assert.Empty(t, f.scheduler.batches)
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newStudyFixture(t)
		st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study"})
		require.NoError(t, err)

		_, err = f.svc.SendInvitationEmail(ctx, "someone-else", st.ID)
		assert.ErrorIs(t, err, ErrStudyNotFound)
	})

	t.Run("unknown study", func(t *testing.T) {
		f := newStudyFixture(t)
		_, err := f.svc.SendInvitationEmail(ctx, f.owner.ID, "missing")
		assert.ErrorIs(t, err, ErrStudyNotFound)
	})

	t.Run("sending disabled", func(t *testing.T) {
		f := newStudyFixture(t)
		f.svc.Scheduler = nil
		_, err := f.svc.SendInvitationEmail(ctx, f.owner.ID, "any")
		assert.ErrorIs(t, err, ErrInvitationsDisabled)
	})

	t.Run("scheduler rejects", func(t *testing.T) {
		f := newStudyFixture(t)
		f.scheduler.err = mailer.ErrPoolClosed
		st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AddParticipant(ctx, f.owner.ID, st.ID, f.participant(t, entity.Participant{Email: "p@email.com"})))

		_, err = f.svc.SendInvitationEmail(ctx, f.owner.ID, st.ID)
		assert.True(t, errors.Is(err, mailer.ErrPoolClosed))
		require.NotNil(t, f.hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
	})
}

func TestSendInvitationEmail_EachCallIsANewBatch(t *testing.T) {
	f := newStudyFixture(t)
	ctx := context.Background()
	st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study"})
	require.NoError(t, err)
	require.NoError(t, f.svc.AddParticipant(ctx, f.owner.ID, st.ID, f.participant(t, entity.Participant{Email: "p@email.com"})))

	first, err := f.svc.SendInvitationEmail(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)
	second, err := f.svc.SendInvitationEmail(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, f.scheduler.batches, 2)
}

func TestStudyService_ParticipantLinks(t *testing.T) {
	f := newStudyFixture(t)
	ctx := context.Background()
	st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "  study  "})
	require.NoError(t, err)
	assert.Equal(t, "study", st.Name)

	assert.ErrorIs(t, f.svc.AddParticipant(ctx, f.owner.ID, st.ID, "missing"), ErrParticipantNotFound)

	pid := f.participant(t, entity.Participant{Email: "p@email.com"})
	require.NoError(t, f.svc.AddParticipant(ctx, f.owner.ID, st.ID, pid))
	list, err := f.svc.ListParticipants(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.RemoveParticipant(ctx, f.owner.ID, st.ID, pid))
	assert.ErrorIs(t, f.svc.RemoveParticipant(ctx, f.owner.ID, st.ID, pid), ErrParticipantNotFound)
}

func TestStudyService_UpdateAndDelete(t *testing.T) {
	f := newStudyFixture(t)
	ctx := context.Background()
	st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study", EmailBody: strPtr("old")})
	require.NoError(t, err)

	up, err := f.svc.Update(ctx, f.owner.ID, st.ID, StudyInput{EmailSubject: "new subject"})
	require.NoError(t, err)
	assert.Equal(t, "study", up.Name)
	assert.Equal(t, "new subject", up.EmailSubject)
	assert.Nil(t, up.EmailBody)

	_, err = f.svc.Update(ctx, "intruder", st.ID, StudyInput{Name: "x"})
	assert.ErrorIs(t, err, ErrStudyNotFound)

	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, st.ID))
	_, err = f.svc.Get(ctx, f.owner.ID, st.ID)
	assert.ErrorIs(t, err, ErrStudyNotFound)
}

func TestLastInvitationReport(t *testing.T) {
	f := newStudyFixture(t)
	ctx := context.Background()
	st, err := f.svc.Create(ctx, f.owner.ID, StudyInput{Name: "study"})
	require.NoError(t, err)

	rep, err := f.svc.LastInvitationReport(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)
	assert.Nil(t, rep)

	f.reports[st.ID] = mailer.Report{BatchID: "b1", Ref: st.ID, State: mailer.StateCompleted, Sent: 2}
	rep, err = f.svc.LastInvitationReport(ctx, f.owner.ID, st.ID)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, "b1", rep.BatchID)
	assert.Equal(t, 2, rep.Sent)

	_, err = f.svc.LastInvitationReport(ctx, "intruder", st.ID)
	assert.ErrorIs(t, err, ErrStudyNotFound)
}

func TestNewInvitationBatch(t *testing.T) {
	st := &entity.Study{ID: "s1", EmailSubject: "subj"}
	owner := &entity.User{Email: "owner@email.com"}
	b := NewInvitationBatch(st, owner, []entity.Participant{{Email: "a@email.com"}, {Email: "b@email.com"}})

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "s1", b.Ref)
	assert.Equal(t, "owner@email.com", b.Sender)
	assert.Equal(t, mailer.Template{Subject: "subj", Body: ""}, b.Template)
	assert.Len(t, b.Recipients, 2)
}
