package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// viewRoutes maps the bare browser routes to their view files, same
// contract the old Express server exposed.
var viewRoutes = map[string]string{
	"/login":          "views/login.html",
	"/registro":       "views/registro.html",
	"/dashboard":      "dashboard.html",
	"/mapa-mesas":     "views/table-map.html",
	"/pedidos":        "views/orders.html",
	"/pagos":          "views/payments.html",
	"/cocina":         "views/kitchen.html",
	"/reservaciones":  "views/reservations.html",
	"/gestion-menu":   "views/menu-management.html",
	"/administracion": "views/administration.html",
	"/usuarios-roles": "views/users-and-roles.html",
}

// RegisterViews wires the static asset routes: the root redirects to
// the login view, bare routes serve their view file, and anything else
// is tried against the static directory.
func (h *Handlers) RegisterViews(router *gin.Engine) {
	staticDir := h.config.Static.Dir

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})

	for route, file := range viewRoutes {
		viewPath := filepath.Join(staticDir, file)
		router.GET(route, func(c *gin.Context) {
			c.File(viewPath)
		})
	}

	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		filePath := filepath.Join(staticDir, filepath.Clean(c.Request.URL.Path))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.File(filePath)
	})
}
