package service

import (
	"context"
	"net/http"
	"testing"

	"birshibpur/internal/realtime"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/mailer"
	"birshibpur/pkg/model"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inboxFixture struct {
	svc  *notificationService
	repo *memRepo
	hub  *recordingHub
	mail *fakeMailer
	dir  *staticDirectory
}

func newInboxFixture() *inboxFixture {
	f := &inboxFixture{
		repo: &memRepo{},
		hub:  &recordingHub{},
		mail: &fakeMailer{},
		dir:  &staticDirectory{users: []string{"a@example.com", "b@example.com", "c@example.com"}},
	}
	f.svc = NewNotificationService(f.repo, f.hub, f.mail, f.dir, testConfig()).(*notificationService)
	f.svc.async = syncRun
	return f
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperrors.AsAppError(err).HTTPStatus
}

var admin = &identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin, Kind: identity.KindSession}

func TestAnnounce_PersistsPushesAndMails(t *testing.T) {
	f := newInboxFixture()
	input := &model.AnnouncementInput{
		Title:     "  দুর্গাপূজা  ",
		Message:   "মহাষষ্ঠী থেকে বিশেষ পূজা।",
		SendEmail: true,
	}

	n, err := f.svc.Announce(context.Background(), admin, input)
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "দুর্গাপূজা", n.Title)
	assert.Empty(t, n.UserID)
	assert.Equal(t, model.NotificationAnnouncement, n.Type)

	require.Len(t, f.hub.events, 1)
	assert.True(t, f.hub.events[0].Prefix)
	assert.Equal(t, realtime.UserRoomPrefix, f.hub.events[0].Target)
	assert.Equal(t, realtime.EventNotification, f.hub.events[0].Event)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, mailer.TemplateAnnouncement, f.mail.sent[0].Template)
	assert.Equal(t, f.dir.users, f.mail.sent[0].To)
}

func TestAnnounce_WithoutEmail(t *testing.T) {
	f := newInboxFixture()

	_, err := f.svc.Announce(context.Background(), admin, &model.AnnouncementInput{Title: "নোটিস", Message: gofakeit.Sentence(8)})
	require.NoError(t, err)
	assert.Empty(t, f.mail.sent)
}

func TestAnnounce_RejectsInvalidInput(t *testing.T) {
	f := newInboxFixture()

	_, err := f.svc.Announce(context.Background(), admin, &model.AnnouncementInput{Title: " ", Message: "x"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, f.repo.items)
	assert.Empty(t, f.hub.events)
}

func TestList_ReturnsMineAndGlobal(t *testing.T) {
	f := newInboxFixture()
	ctx := context.Background()
	me := &identity.Identity{UserID: "user-1", Role: identity.RoleUser}

	require.NoError(t, f.repo.Create(ctx, &model.Notification{UserID: "user-1", Title: "mine"}))
	require.NoError(t, f.repo.Create(ctx, &model.Notification{UserID: "user-2", Title: "theirs"}))
	require.NoError(t, f.repo.Create(ctx, &model.Notification{Title: "global"}))

	items, total, err := f.svc.List(ctx, me, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "mine", items[0].Title)
	assert.Equal(t, "global", items[1].Title)
}

func TestMarkRead(t *testing.T) {
	f := newInboxFixture()
	ctx := context.Background()
	me := &identity.Identity{UserID: "user-1", Role: identity.RoleUser}
	other := &identity.Identity{UserID: "user-2", Role: identity.RoleUser}

	global := &model.Notification{Title: "global"}
	require.NoError(t, f.repo.Create(ctx, global))
	private := &model.Notification{UserID: "user-1", Title: "mine"}
	require.NoError(t, f.repo.Create(ctx, private))

	require.NoError(t, f.svc.MarkRead(ctx, me, global.ID))
	items, _, err := f.svc.List(ctx, me, 0, 0)
	require.NoError(t, err)
	assert.True(t, items[0].Read)

	items, _, err = f.svc.List(ctx, other, 0, 0)
	require.NoError(t, err)
	assert.False(t, items[0].Read)

	assert.Equal(t, http.StatusNotFound, statusOf(t, f.svc.MarkRead(ctx, other, private.ID)))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, f.svc.MarkRead(ctx, me, "bad")))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, f.svc.MarkRead(ctx, me, "")))
}

func TestDelete(t *testing.T) {
	f := newInboxFixture()
	ctx := context.Background()
	n := &model.Notification{Title: "global"}
	require.NoError(t, f.repo.Create(ctx, n))

	require.NoError(t, f.svc.Delete(ctx, n.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(t, f.svc.Delete(ctx, n.ID)))
}
