package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateSession handles POST /api/v1/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	view := h.terminal.CreateSession()
	c.JSON(http.StatusCreated, view)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	view, err := h.terminal.GetSession(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CloseSession handles DELETE /api/v1/sessions/:id
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.terminal.CloseSession(c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// ListTables handles GET /api/v1/tables
func (h *Handlers) ListTables(c *gin.Context) {
	tables, err := h.terminal.ListTables(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// SelectTable handles PUT /api/v1/sessions/:id/table
func (h *Handlers) SelectTable(c *gin.Context) {
	var req struct {
		TableID     string `json:"tableId"`
		TableNumber string `json:"tableNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.SelectTable(c.Request.Context(), c.Param("id"), req.TableID, req.TableNumber)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetPaymentMethod handles PUT /api/v1/sessions/:id/payment-method
func (h *Handlers) SetPaymentMethod(c *gin.Context) {
	var req struct {
		Method string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.SetPaymentMethod(c.Param("id"), req.Method)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectTipPreset handles PUT /api/v1/sessions/:id/tip/preset
func (h *Handlers) SelectTipPreset(c *gin.Context) {
	var req struct {
		Percentage float64 `json:"percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.SelectTipPreset(c.Param("id"), req.Percentage)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetCustomTip handles PUT /api/v1/sessions/:id/tip/custom
func (h *Handlers) SetCustomTip(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.SetCustomTip(c.Param("id"), req.Amount)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EnterSplit handles POST /api/v1/sessions/:id/split
func (h *Handlers) EnterSplit(c *gin.Context) {
	view, err := h.terminal.EnterSplit(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CancelSplit handles DELETE /api/v1/sessions/:id/split
func (h *Handlers) CancelSplit(c *gin.Context) {
	view, err := h.terminal.CancelSplit(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetPersonCount handles PUT /api/v1/sessions/:id/split/people
func (h *Handlers) SetPersonCount(c *gin.Context) {
	var req struct {
		Count int `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.SetPersonCount(c.Param("id"), req.Count)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AssignItem handles POST /api/v1/sessions/:id/split/assign
func (h *Handlers) AssignItem(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId"`
		ItemID  string `json:"itemId"`
		Person  int    `json:"person"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.AssignItem(c.Param("id"), req.OrderID, req.ItemID, req.Person)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UnassignItem handles POST /api/v1/sessions/:id/split/unassign
func (h *Handlers) UnassignItem(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId"`
		ItemID  string `json:"itemId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.UnassignItem(c.Param("id"), req.OrderID, req.ItemID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApplySplit handles POST /api/v1/sessions/:id/split/apply
func (h *Handlers) ApplySplit(c *gin.Context) {
	var req struct {
		ConfirmPartial bool `json:"confirmPartial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.terminal.ApplySplit(c.Request.Context(), c.Param("id"), req.ConfirmPartial)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetSummary handles GET /api/v1/sessions/:id/summary
func (h *Handlers) GetSummary(c *gin.Context) {
	summary, err := h.terminal.Summary(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ProcessPayment handles POST /api/v1/sessions/:id/payment
func (h *Handlers) ProcessPayment(c *gin.Context) {
	var req struct {
		ConfirmedTotal float64 `json:"confirmedTotal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.terminal.ProcessPayment(c.Request.Context(), c.Param("id"), req.ConfirmedTotal)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
