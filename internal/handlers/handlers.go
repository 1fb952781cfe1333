package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/terminal"
)

// Handlers holds all HTTP handlers for the payments terminal.
type Handlers struct {
	terminal *terminal.Service
	resolver *terminal.ConfigResolver
	config   *config.Config
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	terminalService *terminal.Service,
	resolver *terminal.ConfigResolver,
	cfg *config.Config,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		terminal: terminalService,
		resolver: resolver,
		config:   cfg,
		logger:   logger,
	}
}

// handleError maps the error taxonomy onto HTTP responses. Remote
// errors pass the POS core's message through; everything else resolves
// to a stable, retryable answer.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var confirmErr *apperrors.ConfirmationRequiredError
	if errors.As(err, &confirmErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":                confirmErr.Message,
			"confirmationRequired": true,
			"unassignedItems":      confirmErr.UnassignedItems,
		})
		return
	}

	var remoteErr *apperrors.RemoteError
	if errors.As(err, &remoteErr) {
		status := remoteErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": remoteErr.Error()})
		return
	}

	var connErr *apperrors.ConnectivityError
	if errors.As(err, &connErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": connErr.Error()})
		return
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if errors.Is(err, apperrors.ErrPaymentInFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
