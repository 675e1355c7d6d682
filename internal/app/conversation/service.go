package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"threadbox/internal/access"
	"threadbox/internal/app/message"
	"threadbox/internal/app/participant"
	"threadbox/internal/app/thread"
	"threadbox/internal/app/user"
	"threadbox/internal/utils"
	"threadbox/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPageSize  = 15
	maxSubjectLength = 255
)

type Service interface {
	ListThreads(ctx context.Context, p access.Principal, page int) (*ThreadPage, error)
	CreateThread(ctx context.Context, p access.Principal, req CreateThreadRequest) (*ThreadDetail, error)
	ViewThread(ctx context.Context, p access.Principal, threadID uint64) (*ThreadDetail, error)
	DeleteThread(ctx context.Context, p access.Principal, threadID uint64) error
	PostMessage(ctx context.Context, p access.Principal, threadID uint64, body string) (*message.Message, error)
}

type service struct {
	db           *gorm.DB
	threads      thread.Repository
	participants participant.Repository
	messages     message.Repository
	users        user.Service
	eventBus     *utils.EventBus
	metrics      *Metrics
	logger       *zap.SugaredLogger
	pageSize     int
	now          func() time.Time
}

// NewService wires the conversation core. eventBus and metrics may be nil.
func NewService(
	db *gorm.DB,
	threads thread.Repository,
	participants participant.Repository,
	messages message.Repository,
	users user.Service,
	eventBus *utils.EventBus,
	metrics *Metrics,
	logger *zap.Logger,
	pageSize int,
) Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &service{
		db:           db,
		threads:      threads,
		participants: participants,
		messages:     messages,
		users:        users,
		eventBus:     eventBus,
		metrics:      metrics,
		logger:       logger.Sugar().With("component", "conversation"),
		pageSize:     pageSize,
		now:          time.Now,
	}
}

func (s *service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// activityTime is the timestamp for new activity on t; it is always after t.UpdatedAt.
func (s *service) activityTime(t *thread.Thread) time.Time {
	at := s.clock()
	if floor := t.UpdatedAt.UTC().Add(time.Microsecond); at.Before(floor) {
		at = floor
	}
	return at
}

func (s *service) publish(event string, data interface{}) {
	if s.eventBus != nil {
		s.eventBus.Publish(event, data)
	}
}

func (s *service) ListThreads(ctx context.Context, p access.Principal, page int) (*ThreadPage, error) {
	result, err := s.listThreads(ctx, p, page)
	s.metrics.observe("list_threads", err)
	return result, err
}

func (s *service) listThreads(ctx context.Context, p access.Principal, page int) (*ThreadPage, error) {
	if page < 1 {
		page = 1
	}

	threads, total, err := s.threads.ListVisible(ctx, p, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	ids := make([]uint64, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}

	counts, err := s.messages.CountByThreads(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	latest, err := s.messages.LatestByThreads(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest messages: %w", err)
	}
	members, err := s.participants.ListForThreads(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	summaries := make([]*ThreadSummary, 0, len(threads))
	for _, t := range threads {
		summaries = append(summaries, &ThreadSummary{
			Thread:        t,
			MessagesCount: counts[t.ID],
			LatestMessage: latest[t.ID],
			Participants:  newParticipantViews(members[t.ID]),
			Unread:        isUnread(t, members[t.ID], p.ID),
		})
	}

	lastPage := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	if lastPage < 1 {
		lastPage = 1
	}

	return &ThreadPage{
		CurrentPage: page,
		Data:        summaries,
		LastPage:    lastPage,
		PerPage:     s.pageSize,
		Total:       total,
	}, nil
}

// isUnread reports whether the thread saw activity after userID last read it.
// Non-participants (admins browsing) never have unread threads.
func isUnread(t *thread.Thread, participants []*participant.Participant, userID uint64) bool {
	for _, p := range participants {
		if p.UserID != userID {
			continue
		}
		return p.LastReadAt == nil || p.LastReadAt.Before(t.UpdatedAt)
	}
	return false
}

func (s *service) CreateThread(ctx context.Context, p access.Principal, req CreateThreadRequest) (*ThreadDetail, error) {
	detail, err := s.createThread(ctx, p, req)
	s.metrics.observe("create_thread", err)
	return detail, err
}

func (s *service) createThread(ctx context.Context, p access.Principal, req CreateThreadRequest) (*ThreadDetail, error) {
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)

	verr := &apperr.ValidationError{}
	switch {
	case subject == "":
		verr.Add("subject", "The subject field is required.")
	case utf8.RuneCountInString(subject) > maxSubjectLength:
		verr.Add("subject", fmt.Sprintf("The subject may not be greater than %d characters.", maxSubjectLength))
	}
	if body == "" {
		verr.Add("body", "The body field is required.")
	}
	if len(req.Participants) == 0 {
		verr.Add("participants", "The participants field is required.")
	} else {
		missing, err := s.users.MissingIDs(ctx, req.Participants)
		if err != nil {
			return nil, err
		}
		unknown := make(map[uint64]bool, len(missing))
		for _, id := range missing {
			unknown[id] = true
		}
		for i, id := range req.Participants {
			if unknown[id] {
				field := fmt.Sprintf("participants.%d", i)
				verr.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
			}
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	memberIDs := append([]uint64{p.ID}, req.Participants...)
	at := s.clock()

	var created *thread.Thread
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.threads.WithTx(tx).Create(ctx, subject, p.ID, at)
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		if err := s.participants.WithTx(tx).AttachAll(ctx, created.ID, memberIDs, at); err != nil {
			return fmt.Errorf("attach participants: %w", err)
		}
		if _, err := s.messages.WithTx(tx).Append(ctx, created.ID, p.ID, body, at); err != nil {
			return fmt.Errorf("append first message: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warnw("Thread creation rolled back", "user_id", p.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransaction, err)
	}

	s.logger.Infow("Thread created", "thread_id", created.ID, "user_id", p.ID, "participants", len(memberIDs))

	detail, err := s.loadDetail(ctx, created)
	if err != nil {
		return nil, err
	}
	if creator, err := s.users.GetByID(ctx, created.CreatedBy); err == nil {
		created.Creator = creator
	} else {
		s.logger.Warnw("Creator lookup failed", "thread_id", created.ID, "error", err)
	}

	participantIDs := make([]uint64, 0, len(detail.Participants))
	for _, v := range detail.Participants {
		participantIDs = append(participantIDs, v.ID)
	}
	s.publish(EventThreadCreated, ThreadCreated{ThreadID: created.ID, CreatedBy: p.ID, Participants: participantIDs})

	return detail, nil
}

func (s *service) loadDetail(ctx context.Context, t *thread.Thread) (*ThreadDetail, error) {
	participants, err := s.participants.ListParticipants(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	messages, err := s.messages.ListForThread(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return &ThreadDetail{
		Thread:       t,
		Messages:     messages,
		Participants: newParticipantViews(participants),
	}, nil
}

func (s *service) ViewThread(ctx context.Context, p access.Principal, threadID uint64) (*ThreadDetail, error) {
	detail, err := s.viewThread(ctx, p, threadID)
	s.metrics.observe("view_thread", err)
	return detail, err
}

func (s *service) viewThread(ctx context.Context, p access.Principal, threadID uint64) (*ThreadDetail, error) {
	t, err := s.threads.FindVisible(ctx, threadID, p)
	if errors.Is(err, thread.ErrNotFound) {
		return nil, fmt.Errorf("%w: thread %d", apperr.ErrNotFoundOrDenied, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find thread: %w", err)
	}

	participants, err := s.participants.ListParticipants(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	if !access.CanView(p, newGuard(t, participants)) {
		return nil, fmt.Errorf("%w: thread %d", apperr.ErrNotFoundOrDenied, threadID)
	}

	// Administrators observe without leaving a read marker.
	if !p.IsAdmin() {
		at := s.clock()
		if err := s.participants.MarkRead(ctx, t.ID, p.ID, at); err != nil {
			return nil, fmt.Errorf("failed to mark thread read: %w", err)
		}
		for _, member := range participants {
			if member.UserID == p.ID && (member.LastReadAt == nil || member.LastReadAt.Before(at)) {
				member.LastReadAt = &at
			}
		}
	}

	messages, err := s.messages.ListForThread(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	return &ThreadDetail{
		Thread:       t,
		Messages:     messages,
		Participants: newParticipantViews(participants),
	}, nil
}

func (s *service) DeleteThread(ctx context.Context, p access.Principal, threadID uint64) error {
	err := s.deleteThread(ctx, p, threadID)
	s.metrics.observe("delete_thread", err)
	return err
}

func (s *service) deleteThread(ctx context.Context, p access.Principal, threadID uint64) error {
	t, err := s.threads.FindDeletable(ctx, threadID, p)
	if errors.Is(err, thread.ErrNotFound) {
		return fmt.Errorf("%w: thread %d not found or not owned", apperr.ErrForbidden, threadID)
	}
	if err != nil {
		return fmt.Errorf("failed to find thread: %w", err)
	}
	if !access.CanDeleteThread(p, newGuard(t, nil)) {
		return fmt.Errorf("%w: thread %d not found or not owned", apperr.ErrForbidden, threadID)
	}

	err = s.threads.SoftDelete(ctx, t.ID, s.clock())
	if errors.Is(err, thread.ErrNotFound) {
		return fmt.Errorf("%w: thread %d not found or not owned", apperr.ErrForbidden, threadID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	s.logger.Infow("Thread deleted", "thread_id", t.ID, "user_id", p.ID)
	s.publish(EventThreadDeleted, ThreadDeleted{ThreadID: t.ID, DeletedBy: p.ID})
	return nil
}

func (s *service) PostMessage(ctx context.Context, p access.Principal, threadID uint64, body string) (*message.Message, error) {
	msg, err := s.postMessage(ctx, p, threadID, body)
	s.metrics.observe("post_message", err)
	return msg, err
}

func (s *service) postMessage(ctx context.Context, p access.Principal, threadID uint64, body string) (*message.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.NewValidationError("body", "The body field is required.")
	}

	t, err := s.threads.FindVisible(ctx, threadID, p)
	if errors.Is(err, thread.ErrNotFound) {
		return nil, fmt.Errorf("%w: thread %d", apperr.ErrNotFoundOrDenied, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find thread: %w", err)
	}

	var (
		msg *message.Message
		at  time.Time
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the row lock orders concurrent posts on the same thread
		locked, err := s.threads.WithTx(tx).FindForUpdate(ctx, t.ID)
		if err != nil {
			return err
		}

		member := false
		if !p.IsAdmin() {
			if member, err = s.participants.WithTx(tx).IsParticipant(ctx, t.ID, p.ID); err != nil {
				return fmt.Errorf("check participant: %w", err)
			}
		}
		if !access.CanCreateMessage(p, &guardedThread{thread: locked, members: map[uint64]bool{p.ID: member}}) {
			return fmt.Errorf("%w: thread %d", apperr.ErrNotFoundOrDenied, threadID)
		}

		at = s.activityTime(locked)
		msg, err = s.messages.WithTx(tx).Append(ctx, t.ID, p.ID, body, at)
		if err != nil {
			return fmt.Errorf("append message: %w", err)
		}
		if err := s.threads.WithTx(tx).Touch(ctx, t.ID, at); err != nil {
			return fmt.Errorf("touch thread: %w", err)
		}
		if !p.IsAdmin() {
			if err := s.participants.WithTx(tx).MarkRead(ctx, t.ID, p.ID, at); err != nil {
				return fmt.Errorf("mark read: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, apperr.ErrNotFoundOrDenied) {
		return nil, err
	}
	if errors.Is(err, thread.ErrNotFound) {
		// deleted between lookup and commit
		return nil, fmt.Errorf("%w: thread %d", apperr.ErrNotFoundOrDenied, threadID)
	}
	if err != nil {
		s.logger.Warnw("Message post rolled back", "thread_id", t.ID, "user_id", p.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransaction, err)
	}

	if author, err := s.users.GetByID(ctx, p.ID); err == nil {
		msg.User = author
	} else {
		s.logger.Warnw("Author lookup failed", "message_id", msg.ID, "error", err)
	}

	s.logger.Debugw("Message posted", "thread_id", t.ID, "message_id", msg.ID, "user_id", p.ID)
	s.publish(EventMessagePosted, MessagePosted{ThreadID: t.ID, MessageID: msg.ID, AuthorID: p.ID, At: at})

	return msg, nil
}
