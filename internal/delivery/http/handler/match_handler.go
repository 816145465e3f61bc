package handler

import (
	"errors"
	"strconv"

	"volunteer-match/internal/delivery/http/dto"
	"volunteer-match/internal/delivery/http/middleware"
	"volunteer-match/internal/pkg/response"
	"volunteer-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	query   usecase.MatchQueryUsecase
	refresh usecase.MatchRefreshUsecase
}

func NewMatchHandler(query usecase.MatchQueryUsecase, refresh usecase.MatchRefreshUsecase) *MatchHandler {
	return &MatchHandler{query: query, refresh: refresh}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/tasks/:task_id/matches", h.GetForTask)
	r.Get("/seekers/:seeker_id/matches", h.GetForSeeker)
	r.Post("/matches/refresh", h.Refresh)
}

func (h *MatchHandler) GetForTask(c fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("task_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid task id", nil, err)
	}

	weights, err := queryWeights(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid weights", nil, err)
	}

	rows, err := h.query.FindForTask(c.Context(), taskID, queryLimit(c), weights)
	if err != nil {
		return mapMatchUsecaseError(err)
	}

	out := make([]dto.SeekerMatchResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.SeekerMatchResponse{
			SeekerID:      m.SeekerID,
			SeekerName:    m.SeekerName,
			Email:         m.Email,
			SkillScore:    m.SkillScore,
			DistanceKm:    m.DistanceKm,
			CombinedScore: m.CombinedScore,
			MatchedSkills: m.MatchedSkills,
			Latitude:      m.Latitude,
			Longitude:     m.Longitude,
			LocationName:  m.LocationName,
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) GetForSeeker(c fiber.Ctx) error {
	seekerID, err := uuid.Parse(c.Params("seeker_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid seeker id", nil, err)
	}

	weights, err := queryWeights(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid weights", nil, err)
	}

	rows, err := h.query.FindForSeeker(c.Context(), seekerID, queryLimit(c), weights)
	if err != nil {
		return mapMatchUsecaseError(err)
	}

	out := make([]dto.TaskMatchResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.TaskMatchResponse{
			TaskID:        m.TaskID,
			TaskName:      m.TaskName,
			SkillScore:    m.SkillScore,
			DistanceKm:    m.DistanceKm,
			CombinedScore: m.CombinedScore,
			MatchedSkills: m.MatchedSkills,
			Latitude:      m.Latitude,
			Longitude:     m.Longitude,
			LocationName:  m.LocationName,
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) Refresh(c fiber.Ctx) error {
	records, err := h.refresh.Refresh(c.Context())
	if err != nil {
		return mapMatchUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.RefreshResponse{Records: records})
}

func queryLimit(c fiber.Ctx) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// queryWeights reads the optional skill_weight/distance_weight overrides for
// the on-demand scoring path. Both must be present to take effect.
func queryWeights(c fiber.Ctx) (*usecase.FallbackWeights, error) {
	rawSkill := c.Query("skill_weight")
	rawDistance := c.Query("distance_weight")
	if rawSkill == "" && rawDistance == "" {
		return nil, nil
	}

	skill, err := strconv.ParseFloat(rawSkill, 64)
	if err != nil {
		return nil, err
	}
	distance, err := strconv.ParseFloat(rawDistance, 64)
	if err != nil {
		return nil, err
	}
	return &usecase.FallbackWeights{Skill: skill, Distance: distance}, nil
}

func mapMatchUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid weights", nil, err)
	case errors.Is(err, usecase.ErrTaskNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Task not found", nil, err)
	case errors.Is(err, usecase.ErrSeekerNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Seeker not found", nil, err)
	case errors.Is(err, usecase.ErrRefreshInProgress):
		return middleware.NewAppError(fiber.StatusConflict, "Match refresh already in progress", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
