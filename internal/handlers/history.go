package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	errGetEvents  = "failed to load usage events"
	errEventCount = "failed to count usage events"
	errRelearn    = "failed to clear history"
	errPatterns   = "failed to analyze patterns"
	errGetLock    = "failed to load lock state"

	defaultWindowDays = 7

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// @Summary      List usage events
// @Description  Optional 'since' filter (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD').
// @Tags         history
// @Produce      json
// @Param        deviceId  path   string  true   "Device ID"
// @Param        since     query  string  false  "Lower bound"  example(2025-08-01)
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/events [get]
func (h *Handler) getEvents(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	var since time.Time
	if qs := c.Query("since"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'since' time; use RFC3339 or YYYY-MM-DD"})
			return
		}
		since = t
	}
	events, err := h.services.UsageLog.History(c.Request.Context(), deviceID, since)
	if err != nil {
		h.respondServiceError(c, err, errGetEvents, "events_list_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Usage event count
// @Tags         history
// @Produce      json
// @Param        deviceId  path  string  true  "Device ID"
// @Success      200  {object}  map[string]int  "count"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/events/count [get]
func (h *Handler) getEventCount(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	count, err := h.services.Automation.EventHistoryCount(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, err, errEventCount, "event_count_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// @Summary      Learn new pattern
// @Description  Clears the device's usage history and deletes its current rule, giving pattern learning a clean slate.
// @Tags         history
// @Produce      json
// @Param        deviceId  path  string  true  "Device ID"
// @Success      200  {object}  map[string]int  "cleared_event_count"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/relearn [post]
func (h *Handler) relearn(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	cleared, err := h.services.Automation.ClearHistoryAndRelearn(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, err, errRelearn, "relearn_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared_event_count": cleared})
}

// @Summary      Detect usage patterns
// @Description  Advisory analysis of the trailing window; never modifies the stored rule.
// @Tags         history
// @Produce      json
// @Param        deviceId     path   string  true   "Device ID"
// @Param        window_days  query  int     false  "Trailing window"  Enums(7,14,30)
// @Success      200  {object}  service.PatternReport
// @Failure      400  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/patterns [get]
func (h *Handler) getPatterns(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	windowDays := defaultWindowDays
	if qs := c.Query("window_days"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'window_days', expected an integer"})
			return
		}
		windowDays = v
	}
	report, err := h.services.Automation.DetectPatterns(c.Request.Context(), deviceID, windowDays)
	if err != nil {
		h.respondServiceError(c, err, errPatterns, "pattern_detect_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Device lock state
// @Description  Building-wide lock flag; owned by the bulk automation path, read-only here.
// @Tags         history
// @Produce      json
// @Param        deviceId  path  string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}  "device_id, locked"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{deviceId}/lock [get]
func (h *Handler) getLock(c *gin.Context) {
	deviceID := c.Param(paramDeviceID)
	locked, err := h.services.DeviceLocks.IsLocked(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, err, errGetLock, "lock_get_failed", "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"device_id": deviceID, "locked": locked})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}
