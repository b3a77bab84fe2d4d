package skill

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeOffered Type = "offered"
	TypeWanted  Type = "wanted"
)

// Skill is a listing as seen by the swap engine. Only identity, ownership
// and the approval flag matter for proposals; Name is snapshotted into the
// swap record.
type Skill struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Type      Type
	Approved  bool
	CreatedAt time.Time
}

func (s Skill) OwnedBy(userID uuid.UUID) bool {
	return s.OwnerID == userID
}
