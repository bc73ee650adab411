package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/model"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/validator"
)

type SettingHandler struct {
	settingService *service.SettingService
}

func NewSettingHandler(settingService *service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// GetAssistantSettings godoc
// GET /api/v1/settings/assistant
func (h *SettingHandler) GetAssistantSettings(c *gin.Context) {
	settings, err := h.settingService.LoadAssistant(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings.Masked()})
}

// UpdateAssistantSettings godoc
// PUT /api/v1/settings/assistant
func (h *SettingHandler) UpdateAssistantSettings(c *gin.Context) {
	var req model.UpdateAssistantSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	settings, err := h.settingService.SaveAssistant(c.Request.Context(), req)
	if errors.Is(err, service.ErrBlankAPIKey) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"api_key": err.Error(),
		})
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"settings": settings.Masked()})
}
