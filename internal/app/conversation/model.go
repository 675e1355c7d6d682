package conversation

import (
	"time"

	"threadbox/internal/access"
	"threadbox/internal/app/message"
	"threadbox/internal/app/participant"
	"threadbox/internal/app/thread"
)

type CreateThreadRequest struct {
	Subject      string   `json:"subject" example:"Planning"`
	Body         string   `json:"body" example:"kickoff"`
	Participants []uint64 `json:"participants"`
}

type PostMessageRequest struct {
	Body string `json:"body" example:"ack"`
}

// ParticipantView is a participant as shown to clients: the user plus their read marker.
type ParticipantView struct {
	ID         uint64      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       access.Role `json:"role"`
	LastReadAt *time.Time  `json:"last_read_at"`
}

func newParticipantViews(participants []*participant.Participant) []ParticipantView {
	views := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		v := ParticipantView{ID: p.UserID, LastReadAt: p.LastReadAt}
		if p.User != nil {
			v.Name = p.User.Name
			v.Email = p.User.Email
			v.Role = p.User.Role
		}
		views = append(views, v)
	}
	return views
}

type ThreadSummary struct {
	*thread.Thread
	MessagesCount int64             `json:"messages_count"`
	LatestMessage *message.Message  `json:"latest_message"`
	Participants  []ParticipantView `json:"participants"`
	Unread        bool              `json:"unread"`
}

type ThreadPage struct {
	CurrentPage int              `json:"current_page"`
	Data        []*ThreadSummary `json:"data"`
	LastPage    int              `json:"last_page"`
	PerPage     int              `json:"per_page"`
	Total       int64            `json:"total"`
}

type ThreadDetail struct {
	*thread.Thread
	Messages     []*message.Message `json:"messages"`
	Participants []ParticipantView  `json:"participants"`
}

type ThreadPageResponse struct {
	Success bool        `json:"success"`
	Data    *ThreadPage `json:"data"`
}

type ThreadDetailResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    *ThreadDetail `json:"data"`
}

type MessageResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *message.Message `json:"data"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
