package usecase

import (
	"context"
	"errors"
	"time"

	"skill-swap/internal/domain/skill"
	"skill-swap/internal/domain/swap"
	"skill-swap/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSelfSwapNotAllowed     = errors.New("cannot create swap request with yourself")
	ErrInvalidSkillOwnership  = errors.New("skill not found, not approved or owned by another user")
	ErrDuplicateSwapRequest   = errors.New("a pending swap request already exists for these skills")
	ErrSwapNotFound           = errors.New("swap request not found")
	ErrNotAuthorized          = errors.New("not authorized for this swap request")
	ErrInvalidStateTransition = errors.New("swap request has already been resolved")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternal               = errors.New("internal error")
)

// Dispatcher pushes an event to every live channel of a user. It is
// best-effort and must not report failures back to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, event string, payload any)
}

type ProposeSwapInput struct {
	RequesterID    uuid.UUID
	ResponderID    uuid.UUID
	OfferedSkillID uuid.UUID
	WantedSkillID  uuid.UUID
}

type SwapUsecase interface {
	Propose(ctx context.Context, in ProposeSwapInput) (swap.SwapRequest, error)
	Accept(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error)
	Reject(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error)
	Cancel(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID, status *swap.Status) ([]swap.SwapRequest, error)
	GetForUser(ctx context.Context, swapID, userID uuid.UUID) (swap.SwapRequest, error)
}

// SwapLifecycle owns every write to a swap's status. Transitions are a
// read for authorization followed by a conditional write in the store, so
// two racing resolutions of one pending swap cannot both succeed.
type SwapLifecycle struct {
	swaps    repository.SwapRepository
	skills   repository.SkillDirectory
	notifier Dispatcher
	logger   *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func NewSwapLifecycle(swaps repository.SwapRepository, skills repository.SkillDirectory, notifier Dispatcher, logger *zap.Logger) *SwapLifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapLifecycle{
		swaps:    swaps,
		skills:   skills,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.New,
	}
}

func (u *SwapLifecycle) Propose(ctx context.Context, in ProposeSwapInput) (swap.SwapRequest, error) {
	if in.RequesterID == uuid.Nil || in.ResponderID == uuid.Nil || in.OfferedSkillID == uuid.Nil || in.WantedSkillID == uuid.Nil {
		return swap.SwapRequest{}, ErrInvalidInput
	}
	if in.RequesterID == in.ResponderID {
		return swap.SwapRequest{}, ErrSelfSwapNotAllowed
	}

	offered, err := u.ownedApprovedSkill(ctx, in.OfferedSkillID, in.RequesterID)
	if err != nil {
		return swap.SwapRequest{}, err
	}
	wanted, err := u.ownedApprovedSkill(ctx, in.WantedSkillID, in.ResponderID)
	if err != nil {
		return swap.SwapRequest{}, err
	}

	rec := swap.SwapRequest{
		ID:               u.newID(),
		RequesterID:      in.RequesterID,
		ResponderID:      in.ResponderID,
		OfferedSkillID:   offered.ID,
		WantedSkillID:    wanted.ID,
		OfferedSkillName: offered.Name,
		WantedSkillName:  wanted.Name,
		Status:           swap.StatusPending,
		CreatedAt:        u.now(),
	}

	if err := u.swaps.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrPendingSwapExists) {
			return swap.SwapRequest{}, ErrDuplicateSwapRequest
		}
		u.logger.Error("create swap request failed", zap.Error(err),
			zap.Stringer("requester_id", in.RequesterID), zap.Stringer("responder_id", in.ResponderID))
		return swap.SwapRequest{}, ErrInternal
	}

	u.logger.Info("swap request proposed",
		zap.Stringer("swap_id", rec.ID),
		zap.Stringer("requester_id", rec.RequesterID),
		zap.Stringer("responder_id", rec.ResponderID),
	)

	u.dispatch(ctx, rec.ResponderID, swap.EventNewSwapRequest, swap.NewSwapRequestPayload{
		SwapID:           rec.ID,
		RequesterID:      rec.RequesterID,
		OfferedSkillName: rec.OfferedSkillName,
		WantedSkillName:  rec.WantedSkillName,
	})

	return rec, nil
}

func (u *SwapLifecycle) Accept(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error) {
	return u.transition(ctx, swapID, actingUserID, swap.ActionAccept)
}

func (u *SwapLifecycle) Reject(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error) {
	return u.transition(ctx, swapID, actingUserID, swap.ActionReject)
}

func (u *SwapLifecycle) Cancel(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error) {
	return u.transition(ctx, swapID, actingUserID, swap.ActionCancel)
}

func (u *SwapLifecycle) ListForUser(ctx context.Context, userID uuid.UUID, status *swap.Status) ([]swap.SwapRequest, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	if status != nil && !status.Valid() {
		return nil, ErrInvalidInput
	}

	items, err := u.swaps.FindByUser(ctx, userID, status)
	if err != nil {
		u.logger.Error("list swap requests failed", zap.Error(err), zap.Stringer("user_id", userID))
		return nil, ErrInternal
	}
	return items, nil
}

func (u *SwapLifecycle) GetForUser(ctx context.Context, swapID, userID uuid.UUID) (swap.SwapRequest, error) {
	if swapID == uuid.Nil || userID == uuid.Nil {
		return swap.SwapRequest{}, ErrInvalidInput
	}

	rec, err := u.find(ctx, swapID)
	if err != nil {
		return swap.SwapRequest{}, err
	}
	if !rec.Involves(userID) {
		return swap.SwapRequest{}, ErrSwapNotFound
	}
	return rec, nil
}

func (u *SwapLifecycle) transition(ctx context.Context, swapID, actingUserID uuid.UUID, action swap.Action) (swap.SwapRequest, error) {
	if swapID == uuid.Nil || actingUserID == uuid.Nil {
		return swap.SwapRequest{}, ErrInvalidInput
	}
	t, ok := swap.TransitionFor(action)
	if !ok {
		return swap.SwapRequest{}, ErrInvalidInput
	}

	rec, err := u.find(ctx, swapID)
	if err != nil {
		return swap.SwapRequest{}, err
	}
	if rec.UserIn(t.Actor) != actingUserID {
		return swap.SwapRequest{}, ErrNotAuthorized
	}
	if !swap.CanTransition(rec.Status, t.Target) {
		return swap.SwapRequest{}, ErrInvalidStateTransition
	}

	updated, err := u.swaps.TransitionStatus(ctx, swapID, swap.StatusPending, t.Target, u.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSwapStatusConflict):
			return swap.SwapRequest{}, ErrInvalidStateTransition
		case errors.Is(err, repository.ErrSwapRecordNotFound):
			return swap.SwapRequest{}, ErrSwapNotFound
		default:
			u.logger.Error("swap transition failed", zap.Error(err),
				zap.Stringer("swap_id", swapID), zap.String("action", string(action)))
			return swap.SwapRequest{}, ErrInternal
		}
	}

	u.logger.Info("swap request resolved",
		zap.Stringer("swap_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.Stringer("actor_id", actingUserID),
	)

	u.dispatch(ctx, updated.UserIn(t.Recipient), t.Event, swap.StatusChangedPayload{SwapID: updated.ID})

	return updated, nil
}

func (u *SwapLifecycle) find(ctx context.Context, swapID uuid.UUID) (swap.SwapRequest, error) {
	rec, err := u.swaps.FindByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, repository.ErrSwapRecordNotFound) {
			return swap.SwapRequest{}, ErrSwapNotFound
		}
		u.logger.Error("load swap request failed", zap.Error(err), zap.Stringer("swap_id", swapID))
		return swap.SwapRequest{}, ErrInternal
	}
	return rec, nil
}

func (u *SwapLifecycle) ownedApprovedSkill(ctx context.Context, skillID, ownerID uuid.UUID) (skill.Skill, error) {
	s, err := u.skills.GetSkill(ctx, skillID)
	if err != nil {
		if errors.Is(err, repository.ErrSkillRecordNotFound) {
			return skill.Skill{}, ErrInvalidSkillOwnership
		}
		u.logger.Error("skill lookup failed", zap.Error(err), zap.Stringer("skill_id", skillID))
		return skill.Skill{}, ErrInternal
	}
	if !s.Approved || !s.OwnedBy(ownerID) {
		return skill.Skill{}, ErrInvalidSkillOwnership
	}
	return s, nil
}

// dispatch runs after the transition is committed; a panicking or failing
// notifier is logged and otherwise ignored.
func (u *SwapLifecycle) dispatch(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if u.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("notification dispatch panicked",
				zap.Any("panic", r), zap.String("event", event), zap.Stringer("user_id", userID))
		}
	}()
	u.notifier.Dispatch(ctx, userID, event, payload)
}
