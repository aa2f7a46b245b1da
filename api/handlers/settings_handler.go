package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
)

// SettingsHandler exposes the user's preferences
type SettingsHandler struct {
	coord *app.JobCoordinator
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(coord *app.JobCoordinator) *SettingsHandler {
	return &SettingsHandler{coord: coord}
}

// UpdateSettingRequest carries one new value. Strings, booleans and numbers
// are all accepted.
type UpdateSettingRequest struct {
	Value interface{} `json:"value"`
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Settings())
}

// UpdateSetting handles PUT /api/v1/settings/:key
func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	value, ok := settingValue(req.Value)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a string, boolean or number"})
		return
	}

	settings, err := h.coord.UpdateSetting(c.Param("key"), value)
	if err != nil {
		if domain.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func settingValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
