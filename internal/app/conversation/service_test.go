package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"threadbox/internal/access"
	"threadbox/internal/app/message"
	"threadbox/internal/app/participant"
	"threadbox/internal/app/thread"
	"threadbox/internal/app/user"
	"threadbox/internal/db/dbtest"
	"threadbox/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	t            *testing.T
	conn         *gorm.DB
	svc          *service
	threads      thread.Repository
	participants participant.Repository
	messages     message.Repository
	metrics      *Metrics
	clock        time.Time

	u1, u2, u3, admin access.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	env := &testEnv{
		t:            t,
		conn:         conn,
		threads:      thread.NewRepository(conn),
		participants: participant.NewRepository(conn),
		messages:     message.NewRepository(conn),
		metrics:      NewMetrics(prometheus.NewRegistry()),
		clock:        time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
		u1:           dbtest.CreateUser(t, conn, "Usuario Uno", access.RoleUser).Principal(),
		u2:           dbtest.CreateUser(t, conn, "Usuario Dos", access.RoleUser).Principal(),
		u3:           dbtest.CreateUser(t, conn, "Usuario Tres", access.RoleUser).Principal(),
		admin:        dbtest.CreateUser(t, conn, "Administrador", access.RoleAdmin).Principal(),
	}
	env.svc = env.build(env.threads, env.messages)
	return env
}

func (e *testEnv) build(threads thread.Repository, messages message.Repository) *service {
	users := user.NewService(user.NewRepository(e.conn), nil, zap.NewNop())
	svc := NewService(e.conn, threads, e.participants, messages, users, nil, e.metrics, zap.NewNop(), 2).(*service)
	svc.now = func() time.Time { return e.clock }
	return svc
}

func (e *testEnv) tick(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) create(p access.Principal, subject string, participants ...uint64) *ThreadDetail {
	e.t.Helper()
	detail, err := e.svc.CreateThread(context.Background(), p, CreateThreadRequest{
		Subject:      subject,
		Body:         "kickoff",
		Participants: participants,
	})
	require.NoError(e.t, err)
	return detail
}

func (e *testEnv) marker(threadID uint64, p access.Principal) *time.Time {
	e.t.Helper()
	row, err := e.participants.Get(context.Background(), threadID, p.ID)
	require.NoError(e.t, err)
	return row.LastReadAt
}

func participantIDs(views []ParticipantView) []uint64 {
	ids := make([]uint64, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestPlanningScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(env.u1, "Planning", env.u2.ID)
	assert.ElementsMatch(t, []uint64{env.u1.ID, env.u2.ID}, participantIDs(created.Participants))
	require.Len(t, created.Messages, 1)
	assert.Equal(t, env.u1.ID, created.Messages[0].UserID)
	assert.Equal(t, "kickoff", created.Messages[0].Body)
	require.NotNil(t, created.Creator)
	assert.Equal(t, env.u1.ID, created.Creator.ID)
	createdAt := created.UpdatedAt

	_, err := env.svc.ViewThread(ctx, env.u3, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)

	env.tick(time.Minute)
	msg, err := env.svc.PostMessage(ctx, env.u2, created.ID, "ack")
	require.NoError(t, err)
	require.NotNil(t, msg.User)
	assert.Equal(t, env.u2.ID, msg.User.ID)

	marker := env.marker(created.ID, env.u2)
	require.NotNil(t, marker)
	assert.True(t, marker.Equal(env.clock))

	env.tick(time.Minute)
	viewed, err := env.svc.ViewThread(ctx, env.admin, created.ID)
	require.NoError(t, err)
	require.Len(t, viewed.Messages, 2)
	assert.Equal(t, "kickoff", viewed.Messages[0].Body)
	assert.Equal(t, "ack", viewed.Messages[1].Body)
	assert.True(t, viewed.UpdatedAt.After(createdAt))
	assert.NotContains(t, participantIDs(viewed.Participants), env.admin.ID)

	_, err = env.participants.Get(ctx, created.ID, env.admin.ID)
	assert.ErrorIs(t, err, participant.ErrNotFound)
	assert.Nil(t, env.marker(created.ID, env.u1))
}

func TestDeleteScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	err := env.svc.DeleteThread(ctx, env.u2, created.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.svc.ViewThread(ctx, env.u2, created.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteThread(ctx, env.u1, created.ID))

	_, err = env.svc.ViewThread(ctx, env.u2, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)

	err = env.svc.DeleteThread(ctx, env.u1, created.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	var messages int64
	require.NoError(t, env.conn.Model(&message.Message{}).Where("thread_id = ?", created.ID).Count(&messages).Error)
	assert.EqualValues(t, 1, messages)
}

func TestAdminMayDeleteAnyThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	require.NoError(t, env.svc.DeleteThread(ctx, env.admin, created.ID))

	for _, p := range []access.Principal{env.u1, env.u2, env.admin} {
		_, err := env.svc.ViewThread(ctx, p, created.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)

		page, err := env.svc.ListThreads(ctx, p, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Data)

		_, err = env.svc.PostMessage(ctx, p, created.ID, "still there?")
		assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)
	}
}

func TestCreateThreadParticipantsAreIdempotentUnion(t *testing.T) {
	env := newTestEnv(t)

	created := env.create(env.u1, "Team", env.u2.ID, env.u3.ID, env.u2.ID, env.u1.ID)

	assert.ElementsMatch(t, []uint64{env.u1.ID, env.u2.ID, env.u3.ID}, participantIDs(created.Participants))
	for _, v := range created.Participants {
		assert.Nil(t, v.LastReadAt)
	}
}

func TestCreateThreadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   CreateThreadRequest
		field string
		msg   string
	}{
		{
			name:  "blank subject",
			req:   CreateThreadRequest{Subject: "   ", Body: "hi", Participants: []uint64{env.u2.ID}},
			field: "subject",
			msg:   "The subject field is required.",
		},
		{
			name:  "subject too long",
			req:   CreateThreadRequest{Subject: strings.Repeat("ñ", 256), Body: "hi", Participants: []uint64{env.u2.ID}},
			field: "subject",
			msg:   "The subject may not be greater than 255 characters.",
		},
		{
			name:  "blank body",
			req:   CreateThreadRequest{Subject: "Hello", Body: "\n", Participants: []uint64{env.u2.ID}},
			field: "body",
			msg:   "The body field is required.",
		},
		{
			name:  "no participants",
			req:   CreateThreadRequest{Subject: "Hello", Body: "hi"},
			field: "participants",
			msg:   "The participants field is required.",
		},
		{
			name:  "unknown participant",
			req:   CreateThreadRequest{Subject: "Hello", Body: "hi", Participants: []uint64{env.u2.ID, 9999}},
			field: "participants.1",
			msg:   "The selected participants.1 is invalid.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateThread(ctx, env.u1, tc.req)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{tc.msg}, verr.Fields[tc.field])
		})
	}

	_, err := env.svc.CreateThread(ctx, env.u1, CreateThreadRequest{Subject: strings.Repeat("a", 255), Body: "hi", Participants: []uint64{env.u2.ID}})
	assert.NoError(t, err)

	var threads int64
	require.NoError(t, env.conn.Model(&thread.Thread{}).Count(&threads).Error)
	assert.EqualValues(t, 1, threads)
}

type failingMessages struct {
	message.Repository
	err error
}

func (f *failingMessages) WithTx(tx *gorm.DB) message.Repository {
	return &failingMessages{Repository: f.Repository.WithTx(tx), err: f.err}
}

// Append writes the row and then fails, so the caller must roll it back.
func (f *failingMessages) Append(ctx context.Context, threadID, authorID uint64, body string, at time.Time) (*message.Message, error) {
	m, err := f.Repository.Append(ctx, threadID, authorID, body, at)
	if err != nil {
		return nil, err
	}
	return m, f.err
}

func TestCreateThreadIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	injected := errors.New("disk full")
	env.svc = env.build(env.threads, &failingMessages{Repository: env.messages, err: injected})

	_, err := env.svc.CreateThread(context.Background(), env.u1, CreateThreadRequest{
		Subject:      "Planning",
		Body:         "kickoff",
		Participants: []uint64{env.u2.ID},
	})
	assert.ErrorIs(t, err, apperr.ErrTransaction)
	assert.Equal(t, 500, apperr.HTTPStatus(err))

	for _, model := range []interface{}{&thread.Thread{}, &participant.Participant{}, &message.Message{}} {
		var n int64
		require.NoError(t, env.conn.Unscoped().Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

type failingTouch struct {
	thread.Repository
	err error
}

func (f *failingTouch) WithTx(tx *gorm.DB) thread.Repository {
	return &failingTouch{Repository: f.Repository.WithTx(tx), err: f.err}
}

func (f *failingTouch) Touch(context.Context, uint64, time.Time) error {
	return f.err
}

func TestPostMessageIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	env.svc = env.build(&failingTouch{Repository: env.threads, err: errors.New("lock timeout")}, env.messages)
	env.tick(time.Minute)

	_, err := env.svc.PostMessage(ctx, env.u2, created.ID, "ack")
	assert.ErrorIs(t, err, apperr.ErrTransaction)

	list, err := env.messages.ListForThread(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Nil(t, env.marker(created.ID, env.u2))
}

func TestPostMessageStrictlyAdvancesActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	// a frozen clock must still move updated_at forward
	previous := created.UpdatedAt
	for _, body := range []string{"one", "two", "three"} {
		msg, err := env.svc.PostMessage(ctx, env.u2, created.ID, body)
		require.NoError(t, err)

		th, err := env.threads.FindVisible(ctx, created.ID, env.u2)
		require.NoError(t, err)
		assert.True(t, th.UpdatedAt.After(previous), "updated_at must increase")
		previous = th.UpdatedAt

		list, err := env.messages.ListForThread(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, list[len(list)-1].ID)
	}
}

// interleavedLookup runs another post after the wrapped lookup returns and
// before the caller opens its transaction.
type interleavedLookup struct {
	thread.Repository
	between func()
}

func (l *interleavedLookup) FindVisible(ctx context.Context, threadID uint64, p access.Principal) (*thread.Thread, error) {
	t, err := l.Repository.FindVisible(ctx, threadID, p)
	if l.between != nil {
		between := l.between
		l.between = nil
		between()
	}
	return t, err
}

func TestPostMessageNeverMovesActivityBackwards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)
	start := env.clock

	later := env.build(env.threads, env.messages)
	later.now = func() time.Time { return start.Add(2 * time.Second) }

	lookup := &interleavedLookup{Repository: env.threads}
	lookup.between = func() {
		_, err := later.PostMessage(ctx, env.u1, created.ID, "second")
		require.NoError(t, err)
	}
	env.svc = env.build(lookup, env.messages)
	env.clock = start.Add(time.Second)

	msg, err := env.svc.PostMessage(ctx, env.u2, created.ID, "first")
	require.NoError(t, err)

	th, err := env.threads.FindVisible(ctx, created.ID, env.u2)
	require.NoError(t, err)
	assert.True(t, th.UpdatedAt.After(start.Add(2*time.Second)), "updated_at moved backwards: %s", th.UpdatedAt)
	assert.True(t, msg.CreatedAt.Equal(th.UpdatedAt))

	list, err := env.messages.ListForThread(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "second", list[1].Body)
	assert.Equal(t, "first", list[2].Body)
}

func TestPostMessageChecksMembershipInTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	lookup := &interleavedLookup{Repository: env.threads}
	lookup.between = func() {
		require.NoError(t, env.conn.Where("thread_id = ? AND user_id = ?", created.ID, env.u2.ID).
			Delete(&participant.Participant{}).Error)
	}
	env.svc = env.build(lookup, env.messages)

	_, err := env.svc.PostMessage(ctx, env.u2, created.ID, "still here?")
	assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)

	list, err := env.messages.ListForThread(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostMessageRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	_, err := env.svc.PostMessage(ctx, env.u3, created.ID, "let me in")
	assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)

	_, err = env.svc.PostMessage(ctx, env.u3, created.ID, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation, "body is validated before the thread lookup")

	_, err = env.svc.PostMessage(ctx, env.u2, 424242, "hello")
	assert.ErrorIs(t, err, apperr.ErrNotFoundOrDenied)

	env.tick(time.Minute)
	msg, err := env.svc.PostMessage(ctx, env.admin, created.ID, "moderator here")
	require.NoError(t, err)
	assert.Equal(t, env.admin.ID, msg.UserID)

	_, err = env.participants.Get(ctx, created.ID, env.admin.ID)
	assert.ErrorIs(t, err, participant.ErrNotFound)
}

func TestViewThreadMarkReadIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	env.tick(time.Hour)
	first, err := env.svc.ViewThread(ctx, env.u2, created.ID)
	require.NoError(t, err)
	firstMarker := env.marker(created.ID, env.u2)
	require.NotNil(t, firstMarker)
	assert.True(t, firstMarker.Equal(env.clock))
	for _, v := range first.Participants {
		if v.ID == env.u2.ID {
			require.NotNil(t, v.LastReadAt)
			assert.True(t, v.LastReadAt.Equal(env.clock))
		}
	}

	env.tick(-30 * time.Minute)
	_, err = env.svc.ViewThread(ctx, env.u2, created.ID)
	require.NoError(t, err)
	assert.True(t, env.marker(created.ID, env.u2).Equal(*firstMarker))

	env.tick(2 * time.Hour)
	_, err = env.svc.ViewThread(ctx, env.u2, created.ID)
	require.NoError(t, err)
	assert.True(t, env.marker(created.ID, env.u2).After(*firstMarker))
}

func TestListThreads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.create(env.u1, "A", env.u2.ID)
	env.tick(time.Minute)
	b := env.create(env.u1, "B", env.u2.ID)
	env.tick(time.Minute)
	c := env.create(env.u1, "C", env.u2.ID)
	env.tick(time.Minute)
	hidden := env.create(env.u3, "Private", env.u1.ID)

	env.tick(time.Minute)
	_, err := env.svc.PostMessage(ctx, env.u2, a.ID, "bump")
	require.NoError(t, err)

	page, err := env.svc.ListThreads(ctx, env.u2, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Data, 2)
	assert.Equal(t, a.ID, page.Data[0].ID)
	assert.Equal(t, c.ID, page.Data[1].ID)

	bumped := page.Data[0]
	assert.EqualValues(t, 2, bumped.MessagesCount)
	require.NotNil(t, bumped.LatestMessage)
	assert.Equal(t, "bump", bumped.LatestMessage.Body)
	require.NotNil(t, bumped.LatestMessage.User)
	require.NotNil(t, bumped.Creator)
	assert.Len(t, bumped.Participants, 2)
	assert.False(t, bumped.Unread, "posting marks the thread read for the author")
	assert.True(t, page.Data[1].Unread)

	second, err := env.svc.ListThreads(ctx, env.u2, 2)
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.Equal(t, b.ID, second.Data[0].ID)

	beyond, err := env.svc.ListThreads(ctx, env.u2, 7)
	require.NoError(t, err)
	assert.NotNil(t, beyond.Data)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, 7, beyond.CurrentPage)

	zero, err := env.svc.ListThreads(ctx, env.u2, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, zero.CurrentPage)

	all, err := env.svc.ListThreads(ctx, env.admin, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)
	require.Len(t, all.Data, 2)
	assert.Equal(t, a.ID, all.Data[0].ID)
	assert.Equal(t, hidden.ID, all.Data[1].ID)
	assert.False(t, all.Data[1].Unread, "admins are not participants")

	outsider, err := env.svc.ListThreads(ctx, env.u3, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, outsider.Total)
	assert.Equal(t, 1, outsider.LastPage)

	none, err := env.svc.ListThreads(ctx, access.Principal{ID: 999, Role: access.RoleUser}, 1)
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Equal(t, 1, none.LastPage)
}

func TestOperationsAreCounted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(env.u1, "Planning", env.u2.ID)

	_, _ = env.svc.ViewThread(ctx, env.u3, created.ID)
	_, _ = env.svc.ViewThread(ctx, env.u2, created.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.operations.WithLabelValues("create_thread", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.operations.WithLabelValues("view_thread", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.operations.WithLabelValues("view_thread", "not_found")))
}
