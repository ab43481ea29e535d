package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Dashboard(c *gin.Context) {
	render(c, http.StatusOK, "dashboard.html", gin.H{
		"models": h.editor.Registry().All(),
	})
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
