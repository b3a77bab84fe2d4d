package handler

import (
	"context"
	"errors"
	"strings"

	"skill-swap/internal/delivery/http/dto"
	"skill-swap/internal/delivery/http/middleware"
	"skill-swap/internal/domain/swap"
	"skill-swap/internal/pkg/response"
	"skill-swap/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SwapHandler struct {
	uc usecase.SwapUsecase
}

type proposeSwapRequest struct {
	ResponderID    uuid.UUID `json:"responder_id"`
	OfferedSkillID uuid.UUID `json:"offered_skill_id"`
	WantedSkillID  uuid.UUID `json:"wanted_skill_id"`
}

func NewSwapHandler(uc usecase.SwapUsecase) *SwapHandler {
	return &SwapHandler{uc: uc}
}

func (h *SwapHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/swaps")
	grp.Post("/", h.Propose)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Put("/:id/accept", h.Accept)
	grp.Put("/:id/reject", h.Reject)
	grp.Put("/:id/cancel", h.Cancel)
}

func (h *SwapHandler) Propose(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req proposeSwapRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	created, err := h.uc.Propose(c.Context(), usecase.ProposeSwapInput{
		RequesterID:    userID,
		ResponderID:    req.ResponderID,
		OfferedSkillID: req.OfferedSkillID,
		WantedSkillID:  req.WantedSkillID,
	})
	if err != nil {
		return mapSwapUsecaseError(err)
	}
	return response.Created(c, dto.NewSwapResponse(created))
}

func (h *SwapHandler) List(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var status *swap.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := swap.Status(strings.ToLower(raw))
		status = &s
	}

	items, err := h.uc.ListForUser(c.Context(), userID, status)
	if err != nil {
		return mapSwapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSwapListResponse(userID, items))
}

func (h *SwapHandler) Get(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := swapIDParam(c)
	if err != nil {
		return err
	}

	rec, err := h.uc.GetForUser(c.Context(), id, userID)
	if err != nil {
		return mapSwapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSwapResponse(rec))
}

func (h *SwapHandler) Accept(c fiber.Ctx) error {
	return h.resolve(c, h.uc.Accept)
}

func (h *SwapHandler) Reject(c fiber.Ctx) error {
	return h.resolve(c, h.uc.Reject)
}

func (h *SwapHandler) Cancel(c fiber.Ctx) error {
	return h.resolve(c, h.uc.Cancel)
}

func (h *SwapHandler) resolve(c fiber.Ctx, action func(ctx context.Context, swapID, actingUserID uuid.UUID) (swap.SwapRequest, error)) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := swapIDParam(c)
	if err != nil {
		return err
	}

	updated, err := action(c.Context(), id, userID)
	if err != nil {
		return mapSwapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSwapResponse(updated))
}

func swapIDParam(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid swap id", nil, err)
	}
	return id, nil
}

func mapSwapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrSelfSwapNotAllowed):
		return middleware.NewAppError(fiber.StatusBadRequest, "Cannot create swap request with yourself", nil, err)
	case errors.Is(err, usecase.ErrInvalidSkillOwnership):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Skill not found, not approved or not owned by the expected user", nil, err)
	case errors.Is(err, usecase.ErrDuplicateSwapRequest):
		return middleware.NewAppError(fiber.StatusConflict, "A swap request already exists for these skills", nil, err)
	case errors.Is(err, usecase.ErrSwapNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Swap request not found", nil, err)
	case errors.Is(err, usecase.ErrNotAuthorized):
		return middleware.NewAppError(fiber.StatusForbidden, "Not allowed to perform this action on the swap", nil, err)
	case errors.Is(err, usecase.ErrInvalidStateTransition):
		return middleware.NewAppError(fiber.StatusConflict, "Swap request has already been resolved", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
