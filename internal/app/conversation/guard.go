package conversation

import (
	"threadbox/internal/access"
	"threadbox/internal/app/participant"
	"threadbox/internal/app/thread"
)

// guardedThread adapts a loaded thread and its known members to access.Resource.
type guardedThread struct {
	thread  *thread.Thread
	members map[uint64]bool
}

func newGuard(t *thread.Thread, participants []*participant.Participant) *guardedThread {
	members := make(map[uint64]bool, len(participants))
	for _, p := range participants {
		members[p.UserID] = true
	}
	return &guardedThread{thread: t, members: members}
}

func (g *guardedThread) OwnerID() uint64 {
	return g.thread.CreatedBy
}

func (g *guardedThread) IsParticipant(userID uint64) bool {
	return g.members[userID]
}

func (g *guardedThread) IsDeleted() bool {
	return g.thread.DeletedAt.Valid
}

var _ access.Resource = (*guardedThread)(nil)
