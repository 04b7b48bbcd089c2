package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/john-mcs/homely/internal/homely"
)

// StatusProvider exposes the coordinator's last known state to handlers.
type StatusProvider interface {
	Snapshot() (*homely.Snapshot, bool)
	LastError() error
	LastSuccess() time.Time
}

// StatusHandler serves the summarized location state
type StatusHandler struct {
	provider StatusProvider
	logger   *slog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(provider StatusProvider, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		provider: provider,
		logger:   logger.With("component", "status-handler"),
	}
}

// GetStatus returns the alarm state and refresh metadata of the last known
// good snapshot. Before the first successful poll it reports UNKNOWN.
// GET /v1/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	resp := gin.H{}

	if err := h.provider.LastError(); err != nil {
		resp["last_error"] = err.Error()
	}
	if t := h.provider.LastSuccess(); !t.IsZero() {
		resp["last_success"] = t
	}

	snap, ok := h.provider.Snapshot()
	resp["updated"] = ok
	if !ok {
		resp["alarm_state"] = homely.AlarmStateUnknown
		c.JSON(http.StatusOK, resp)
		return
	}

	resp["alarm_state"] = snap.AlarmState
	resp["location_id"] = snap.LocationID
	resp["device_count"] = len(snap.Devices)
	resp["refreshed_at"] = snap.FetchedAt

	c.JSON(http.StatusOK, resp)
}
