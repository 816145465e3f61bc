package handler

import (
	"errors"

	"volunteer-match/internal/delivery/http/dto"
	"volunteer-match/internal/delivery/http/middleware"
	"volunteer-match/internal/domain/enrollment"
	"volunteer-match/internal/pkg/response"
	"volunteer-match/internal/repository"
	"volunteer-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type EnrollmentHandler struct {
	uc usecase.EnrollmentUsecase
}

type initiateEnrollmentRequest struct {
	SeekerID    uuid.UUID `json:"seeker_id"`
	TaskID      uuid.UUID `json:"task_id"`
	Action      string    `json:"action"`
	InitiatedBy uuid.UUID `json:"initiated_by"`
	Message     *string   `json:"message"`
}

type transitionEnrollmentRequest struct {
	Action          string  `json:"action"`
	ResponseMessage *string `json:"response_message"`
}

func NewEnrollmentHandler(uc usecase.EnrollmentUsecase) *EnrollmentHandler {
	return &EnrollmentHandler{uc: uc}
}

func (h *EnrollmentHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/enrollments")
	grp.Post("/", h.Initiate)
	grp.Post("/:id/transition", h.Transition)
	grp.Get("/status", h.Status)

	r.Get("/tasks/:task_id/enrollments", h.ListForTask)
	r.Get("/seekers/:seeker_id/enrollments", h.ListForSeeker)
}

func (h *EnrollmentHandler) Initiate(c fiber.Ctx) error {
	var req initiateEnrollmentRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if req.SeekerID == uuid.Nil || req.TaskID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "seeker_id and task_id are required", nil, nil)
	}
	if req.InitiatedBy == uuid.Nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "initiated_by is required", nil, nil)
	}

	created, err := h.uc.Initiate(c.Context(), usecase.InitiateEnrollmentInput{
		SeekerID:    req.SeekerID,
		TaskID:      req.TaskID,
		Action:      enrollment.Action(req.Action),
		InitiatedBy: req.InitiatedBy,
		Message:     req.Message,
	})
	if err != nil {
		return mapEnrollmentUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, "enrollment created", enrollmentResponse(created))
}

func (h *EnrollmentHandler) Transition(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid enrollment id", nil, err)
	}

	var req transitionEnrollmentRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	updated, err := h.uc.Transition(c.Context(), id, enrollment.Action(req.Action), req.ResponseMessage)
	if err != nil {
		return mapEnrollmentUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, enrollmentResponse(updated))
}

func (h *EnrollmentHandler) Status(c fiber.Ctx) error {
	seekerID, err := uuid.Parse(c.Query("seeker_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid seeker id", nil, err)
	}
	taskID, err := uuid.Parse(c.Query("task_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid task id", nil, err)
	}

	enrolled, status, err := h.uc.IsEnrolled(c.Context(), seekerID, taskID)
	if err != nil {
		return mapEnrollmentUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.EnrollmentStatusResponse{
		Enrolled: enrolled,
		Status:   string(status),
	})
}

func (h *EnrollmentHandler) ListForTask(c fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("task_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid task id", nil, err)
	}

	items, err := h.uc.ListForTask(c.Context(), taskID)
	if err != nil {
		return mapEnrollmentUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, enrollmentDetailResponses(items))
}

func (h *EnrollmentHandler) ListForSeeker(c fiber.Ctx) error {
	seekerID, err := uuid.Parse(c.Params("seeker_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid seeker id", nil, err)
	}

	items, err := h.uc.ListForSeeker(c.Context(), seekerID)
	if err != nil {
		return mapEnrollmentUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, enrollmentDetailResponses(items))
}

func enrollmentResponse(e repository.Enrollment) dto.EnrollmentResponse {
	return dto.EnrollmentResponse{
		ID:              e.ID,
		SeekerID:        e.SeekerID,
		TaskID:          e.TaskID,
		Status:          string(e.Status),
		InitiatedBy:     e.InitiatedBy,
		Message:         e.Message,
		ResponseMessage: e.ResponseMessage,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		ApprovedAt:      e.ApprovedAt,
	}
}

func enrollmentDetailResponses(items []repository.EnrollmentWithDetails) []dto.EnrollmentDetailResponse {
	out := make([]dto.EnrollmentDetailResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.EnrollmentDetailResponse{
			EnrollmentResponse: enrollmentResponse(it.Enrollment),
			SeekerName:         it.SeekerName,
			SeekerEmail:        it.SeekerEmail,
			TaskName:           it.TaskName,
		})
	}
	return out
}

func mapEnrollmentUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	var invalid *enrollment.InvalidTransitionError
	switch {
	case errors.Is(err, usecase.ErrEnrollmentNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Enrollment not found", nil, err)
	case errors.Is(err, usecase.ErrEnrollmentConflict):
		return middleware.NewAppError(fiber.StatusConflict, "Enrollment already exists for this seeker and task", nil, err)
	case errors.Is(err, usecase.ErrTaskNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Task not found", nil, err)
	case errors.Is(err, usecase.ErrSeekerNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Seeker not found", nil, err)
	case errors.Is(err, enrollment.ErrInvalidAction):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.As(err, &invalid):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, invalid.Error(), nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
