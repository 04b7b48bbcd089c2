package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DevicesHandler serves the device collection of the last known snapshot
type DevicesHandler struct {
	provider StatusProvider
	logger   *slog.Logger
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(provider StatusProvider, logger *slog.Logger) *DevicesHandler {
	return &DevicesHandler{
		provider: provider,
		logger:   logger.With("component", "devices-handler"),
	}
}

// deviceView flattens a device's feature states for display consumers
type deviceView struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	ModelName string                    `json:"model_name"`
	Online    bool                      `json:"online"`
	Features  map[string]map[string]any `json:"features"`
}

// ListDevices returns the devices of the last known good snapshot
// GET /v1/devices
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	snap, ok := h.provider.Snapshot()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"devices": []deviceView{}})
		return
	}

	views := make([]deviceView, 0, len(snap.Devices))
	for _, dev := range snap.Devices {
		view := deviceView{
			ID:        dev.ID,
			Name:      dev.Name,
			ModelName: dev.ModelName,
			Online:    dev.Online,
			Features:  make(map[string]map[string]any, len(dev.Features)),
		}
		for featureName, feature := range dev.Features {
			states := make(map[string]any, len(feature.States))
			for stateName, state := range feature.States {
				states[stateName] = state.Value
			}
			view.Features[featureName] = states
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"devices": views})
}
