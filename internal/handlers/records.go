package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"recordadmin/internal/admin"
	"recordadmin/internal/metrics"
	"recordadmin/internal/middleware"
	"recordadmin/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxFormMemory = 32 << 20

// HistoryReader читает журнал изменений. nil, если журнал выключен.
type HistoryReader interface {
	Entries(ctx context.Context, table string, item uint) ([]models.History, error)
}

type Handler struct {
	editor  *admin.Editor
	history HistoryReader
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(editor *admin.Editor, history HistoryReader, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		editor:  editor,
		history: history,
		metrics: m,
		logger:  logger,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, admin.ErrNotFound), errors.Is(err, admin.ErrUnknownModel):
		c.String(http.StatusNotFound, "Not found")
	default:
		h.logger.Error("admin request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal error")
	}
}

//
// СПИСОК
//

func (h *Handler) ListRecords(c *gin.Context) {
	model, recs, err := h.editor.List(c.Request.Context(), c.Param("model"))
	if err != nil {
		h.fail(c, err)
		return
	}

	render(c, http.StatusOK, "index.html", gin.H{
		"model":   model,
		"records": recs,
	})
}

//
// РЕДАКТИРОВАНИЕ
//

// форма редактирования
func (h *Handler) ShowEdit(c *gin.Context) {
	form, err := h.editor.RenderEditForm(c.Request.Context(), c.Param("model"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.FormRenders.WithLabelValues(form.Model.Name).Inc()

	render(c, http.StatusOK, "edit.html", gin.H{
		"form": form,
	})
}

// сохранение изменений
func (h *Handler) UpdateRecord(c *gin.Context) {
	modelName := c.Param("model")
	model, err := h.editor.Registry().Lookup(modelName)
	if err != nil {
		h.fail(c, err)
		return
	}

	start := time.Now()
	defer func() {
		h.metrics.UpdateDuration.WithLabelValues(model.Name).Observe(time.Since(start).Seconds())
	}()

	sub, err := parseSubmission(c, model.Name)
	if err != nil {
		c.String(http.StatusBadRequest, "Malformed form data")
		return
	}

	// HTML-форма не умеет PUT, поэтому POST принимается только с _method
	if c.Request.Method == http.MethodPost {
		switch strings.ToLower(c.Request.Form.Get("_method")) {
		case "put", "patch":
		default:
			c.String(http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
	}

	mode := admin.ModeSave
	if _, ok := c.Request.Form["_continue"]; ok {
		mode = admin.ModeSaveAndEdit
	}

	ctx := c.Request.Context()
	res, err := h.editor.ApplyUpdate(ctx, model.Name, c.Param("id"), sub, mode)

	var verr *admin.ValidationError
	switch {
	case errors.As(err, &verr):
		h.metrics.Updates.WithLabelValues(model.Name, metrics.OutcomeInvalid).Inc()

		form, ferr := h.editor.FailedForm(ctx, verr)
		if ferr != nil {
			h.fail(c, ferr)
			return
		}
		render(c, admin.StatusValidationFailed, "edit.html", gin.H{
			"form":  form,
			"Flash": middleware.Flash{Error: []string{model.Label + " failed to be updated"}},
		})
		return

	case errors.Is(err, admin.ErrNotFound):
		h.metrics.Updates.WithLabelValues(model.Name, metrics.OutcomeNotFound).Inc()
		h.fail(c, err)
		return

	case err != nil:
		h.metrics.Updates.WithLabelValues(model.Name, metrics.OutcomeError).Inc()
		h.fail(c, err)
		return
	}

	h.metrics.Updates.WithLabelValues(model.Name, metrics.OutcomeUpdated).Inc()
	if res.Audited {
		h.metrics.HistoryWritten.WithLabelValues(model.Name).Inc()
	}
	middleware.AddFlash(c, middleware.FlashSuccess, model.Label+" successfully updated")
	c.Redirect(http.StatusFound, res.Location)
}

// parseSubmission собирает поля вида player[name] и league[division_ids][].
func parseSubmission(c *gin.Context, model string) (admin.Submission, error) {
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}

	prefix := model + "["
	sub := admin.Submission{}
	for key, vals := range c.Request.Form {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		end := strings.IndexByte(rest, ']')
		if end <= 0 {
			continue
		}
		name := rest[:end]
		sub[name] = append(sub[name], vals...)
	}
	return sub, nil
}
