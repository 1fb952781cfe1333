package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConfiguration handles GET /api/v1/configuration. It returns the
// effective tax and tip policy after the fallback chain (remote, cache,
// defaults) so the terminal UI can always render tip buttons.
func (h *Handlers) GetConfiguration(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"taxPercentage":    h.resolver.TaxPercentage(),
		"tipOptions":       h.resolver.TipOptions(),
		"defaultTipPreset": h.resolver.DefaultTipPreset(),
	})
}

// RefreshConfiguration handles POST /api/v1/configuration/refresh. The
// refresh never fails: on fetch errors the cached or default policy
// stays in effect.
func (h *Handlers) RefreshConfiguration(c *gin.Context) {
	h.resolver.Refresh(c.Request.Context())
	h.GetConfiguration(c)
}
