package swap

import "github.com/google/uuid"

const (
	EventNewSwapRequest = "newSwapRequest"
	EventSwapAccepted   = "swapAccepted"
	EventSwapRejected   = "swapRejected"
	EventSwapCancelled  = "swapCancelled"
)

type NewSwapRequestPayload struct {
	SwapID           uuid.UUID `json:"swapId"`
	RequesterID      uuid.UUID `json:"requesterId"`
	OfferedSkillName string    `json:"offeredSkillName"`
	WantedSkillName  string    `json:"wantedSkillName"`
}

type StatusChangedPayload struct {
	SwapID uuid.UUID `json:"swapId"`
}
