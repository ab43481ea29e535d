package handlers

import (
	"net/http"

	"recordadmin/internal/models"

	"github.com/gin-gonic/gin"
)

// ShowHistory показывает журнал изменений одной записи.
func (h *Handler) ShowHistory(c *gin.Context) {
	ctx := c.Request.Context()

	model, rec, err := h.editor.Find(ctx, c.Param("model"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var logs []models.History
	if h.history != nil {
		logs, err = h.history.Entries(ctx, rec.Model.Table, rec.ID)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	render(c, http.StatusOK, "history.html", gin.H{
		"model":  model,
		"record": rec,
		"logs":   logs,
	})
}
