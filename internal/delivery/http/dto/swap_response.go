package dto

import (
	"time"

	"skill-swap/internal/domain/swap"

	"github.com/google/uuid"
)

type SwapResponse struct {
	ID               uuid.UUID  `json:"id"`
	RequesterID      uuid.UUID  `json:"requester_id"`
	ResponderID      uuid.UUID  `json:"responder_id"`
	OfferedSkillID   uuid.UUID  `json:"offered_skill_id"`
	OfferedSkillName string     `json:"offered_skill_name"`
	WantedSkillID    uuid.UUID  `json:"wanted_skill_id"`
	WantedSkillName  string     `json:"wanted_skill_name"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// SwapListResponse splits a user's swaps by the side they are on.
type SwapListResponse struct {
	Incoming []SwapResponse `json:"incoming"`
	Outgoing []SwapResponse `json:"outgoing"`
}

func NewSwapResponse(s swap.SwapRequest) SwapResponse {
	return SwapResponse{
		ID:               s.ID,
		RequesterID:      s.RequesterID,
		ResponderID:      s.ResponderID,
		OfferedSkillID:   s.OfferedSkillID,
		OfferedSkillName: s.OfferedSkillName,
		WantedSkillID:    s.WantedSkillID,
		WantedSkillName:  s.WantedSkillName,
		Status:           string(s.Status),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func NewSwapListResponse(userID uuid.UUID, items []swap.SwapRequest) SwapListResponse {
	res := SwapListResponse{
		Incoming: make([]SwapResponse, 0),
		Outgoing: make([]SwapResponse, 0),
	}
	for _, it := range items {
		if it.ResponderID == userID {
			res.Incoming = append(res.Incoming, NewSwapResponse(it))
			continue
		}
		res.Outgoing = append(res.Outgoing, NewSwapResponse(it))
	}
	return res
}
