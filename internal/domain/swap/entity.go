package swap

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

type SwapRequest struct {
	ID               uuid.UUID
	RequesterID      uuid.UUID
	ResponderID      uuid.UUID
	OfferedSkillID   uuid.UUID
	WantedSkillID    uuid.UUID
	OfferedSkillName string
	WantedSkillName  string
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

func (s SwapRequest) Involves(userID uuid.UUID) bool {
	return s.RequesterID == userID || s.ResponderID == userID
}

// SamePair reports whether o proposes the same skill pair between the same two
// users, in either direction.
func (s SwapRequest) SamePair(o SwapRequest) bool {
	if s.OfferedSkillID != o.OfferedSkillID || s.WantedSkillID != o.WantedSkillID {
		return false
	}
	if s.RequesterID == o.RequesterID && s.ResponderID == o.ResponderID {
		return true
	}
	return s.RequesterID == o.ResponderID && s.ResponderID == o.RequesterID
}
