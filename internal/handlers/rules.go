package handlers

import (
	"net/http"

	"building_automation/internal/models"
	"building_automation/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errGetRule      = "failed to load automation rule"
	errCreateRule   = "failed to create automation rule"
	errUpdateRule   = "failed to update automation rule"
	errDeleteRule   = "failed to delete automation rule"
	errInvalidBody  = "invalid body: "
	paramDeviceID   = "deviceId"
)

// CreateRuleRequest is the payload for creating a manual rule. Simple mode
// uses start_time/end_time/active_days; multi-stage mode uses stages.
type CreateRuleRequest struct {
	// Selects between a single daily window and per-day stages
	MultiStage bool `json:"multi_stage"`
	// Window start, HH:MM (simple mode)
	StartTime string `json:"start_time,omitempty" example:"08:00"`
	// Window end, HH:MM (simple mode)
	EndTime string `json:"end_time,omitempty" example:"18:00"`
	// Days the window applies to; defaults to Monday-Friday
	ActiveDays []models.Weekday `json:"active_days,omitempty"`
	// Per-day stage sets (multi-stage mode), up to 3 stages per day
	Stages []models.DaySchedule `json:"stages,omitempty"`
	// Who is creating the rule
	CreatedBy string `json:"created_by" example:"parent@siseoa.edu"`
}

// UpdateRuleRequest is a partial update; omitted fields stay unchanged.
type UpdateRuleRequest struct {
	Enabled    *bool                `json:"enabled,omitempty"`
	StartTime  *string              `json:"start_time,omitempty"`
	EndTime    *string              `json:"end_time,omitempty"`
	ActiveDays []models.Weekday     `json:"active_days,omitempty"`
	Stages     []models.DaySchedule `json:"stages,omitempty"`
	UpdatedBy  string               `json:"updated_by"`
}

// ValidateStagesRequest is a dry-run validation payload.
type ValidateStagesRequest struct {
	Stages []models.DaySchedule `json:"stages"`
}

// @Summary      Get automation rule
// @Tags         automation
// @Produce      json
// @Param        deviceId  path  string  true  "Device ID"
// @Success      200  {object}  models.AutomationRule
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/automation [get]
func (h *Handler) getRule(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	rule, err := h.services.Automation.GetRule(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, err, errGetRule, "rule_get_failed", "device_id", deviceID)
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrRuleNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary      Create manual rule
// @Description  Replaces any existing rule for the device. New rules always start disabled.
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        deviceId  path  string             true  "Device ID"
// @Param        body      body  CreateRuleRequest  true  "Rule payload"
// @Success      201  {object}  service.RuleResult
// @Failure      400  {object}  map[string]interface{}  "errors, warnings"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/automation [post]
func (h *Handler) createRule(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	result, err := h.services.Automation.CreateManualRule(c.Request.Context(), deviceID, service.RuleSpec{
		MultiStage: req.MultiStage,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		ActiveDays: req.ActiveDays,
		Stages:     req.Stages,
	}, req.CreatedBy)
	if err != nil {
		h.respondServiceError(c, err, errCreateRule, "rule_create_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// @Summary      Update rule
// @Description  Partial patch, commonly {"enabled": true}. Fails 404 when the device has no rule.
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        deviceId  path  string             true  "Device ID"
// @Param        body      body  UpdateRuleRequest  true  "Patch payload"
// @Success      200  {object}  service.RuleResult
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/automation [patch]
func (h *Handler) updateRule(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	result, err := h.services.Automation.UpdateRule(c.Request.Context(), deviceID, service.RulePatch{
		Enabled:    req.Enabled,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		ActiveDays: req.ActiveDays,
		Stages:     req.Stages,
	}, req.UpdatedBy)
	if err != nil {
		h.respondServiceError(c, err, errUpdateRule, "rule_update_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      Delete rule
// @Description  Idempotent; deleting a device without a rule succeeds.
// @Tags         automation
// @Produce      json
// @Param        deviceId  path  string  true  "Device ID"
// @Success      204
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/automation [delete]
func (h *Handler) deleteRule(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	if err := h.services.Automation.DeleteRule(c.Request.Context(), deviceID); err != nil {
		h.respondServiceError(c, err, errDeleteRule, "rule_delete_failed", "device_id", deviceID)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Validate multi-stage configuration
// @Description  Dry run; reports every error and warning without persisting anything.
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        deviceId  path  string                 true  "Device ID"
// @Param        body      body  ValidateStagesRequest  true  "Stages payload"
// @Success      200  {object}  service.ValidationReport
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/automation/validate [post]
func (h *Handler) validateStages(c *gin.Context) {
	var req ValidateStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.services.Automation.ValidateStages(req.Stages))
}
