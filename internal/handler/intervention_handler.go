package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/middleware"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/validator"
)

// InterventionHandler serves the teacher-facing wellbeing intervention tools.
type InterventionHandler struct {
	interventions *service.InterventionService
	log           zerolog.Logger
}

// NewInterventionHandler creates a new InterventionHandler.
func NewInterventionHandler(interventions *service.InterventionService, log zerolog.Logger) *InterventionHandler {
	return &InterventionHandler{
		interventions: interventions,
		log:           log.With().Str("component", "intervention_handler").Logger(),
	}
}

// categoryQuery reads the optional category filter. "all" and an empty value
// mean no filter.
func categoryQuery(c *gin.Context) (intervention.Category, bool) {
	raw := c.Query("category")
	if raw == "" || raw == "all" {
		return "", true
	}
	category := intervention.Category(raw)
	if !category.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"category": "category must be one of all, mindfulness, movement, social, academic, emotional",
		})
		return "", false
	}
	return category, true
}

func (h *InterventionHandler) interventionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
	case errors.Is(err, service.ErrActivityNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrActivityNotFound)
	default:
		h.log.Error().Err(err).Msg("Intervention request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ClassSuggestions godoc
// GET /api/v1/teacher/classes/:class_id/interventions/suggestions
func (h *InterventionHandler) ClassSuggestions(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	category, ok := categoryQuery(c)
	if !ok {
		return
	}

	result, err := h.interventions.ClassSuggestions(c.Request.Context(), classID, category)
	if err != nil {
		h.interventionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListActivities godoc
// GET /api/v1/teacher/interventions/activities
func (h *InterventionHandler) ListActivities(c *gin.Context) {
	category, ok := categoryQuery(c)
	if !ok {
		return
	}

	activities, err := h.interventions.Activities(c.Request.Context(), category)
	if err != nil {
		h.interventionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"activities": activities})
}

// RecordImplementation godoc
// POST /api/v1/teacher/classes/:class_id/interventions
func (h *InterventionHandler) RecordImplementation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RecordImplementationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	impl, err := h.interventions.RecordImplementation(c.Request.Context(), classID, claims.UserID(), req)
	if err != nil {
		h.interventionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"implementation": impl})
}

// Suggest godoc
// POST /api/v1/teacher/interventions/suggest
// Scores a supplied class snapshot.
func (h *InterventionHandler) Suggest(c *gin.Context) {
	var req model.SuggestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	suggestions, err := h.interventions.Suggest(c.Request.Context(), req)
	if err != nil {
		h.interventionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"suggestions": suggestions})
}
