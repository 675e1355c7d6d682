// Package access decides what a principal may do with a thread. It performs no I/O:
// callers fetch the thread and its participation facts first.
package access

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated actor of a single request.
type Principal struct {
	ID   uint64
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Resource is the view of a thread the policy reads.
type Resource interface {
	OwnerID() uint64
	IsParticipant(userID uint64) bool
	IsDeleted() bool
}

func CanView(p Principal, r Resource) bool {
	if r == nil || r.IsDeleted() {
		return false
	}
	return p.IsAdmin() || r.IsParticipant(p.ID)
}

func CanCreateMessage(p Principal, r Resource) bool {
	return CanView(p, r)
}

func CanDeleteThread(p Principal, r Resource) bool {
	if r == nil || r.IsDeleted() {
		return false
	}
	return p.IsAdmin() || r.OwnerID() == p.ID
}

func CanListAll(p Principal) bool {
	return p.IsAdmin()
}
