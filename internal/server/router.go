package server

import (
	"fmt"
	"html/template"
	"strings"

	"recordadmin/internal/config"
	"recordadmin/internal/handlers"
	"recordadmin/internal/metrics"
	"recordadmin/internal/middleware"
	"recordadmin/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
	}
}

type Deps struct {
	Handler *handlers.Handler
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func NewRouter(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	r := gin.New()
	// сегмент записи приходит экранированным ("1-navy%2Fgold"), маршрут ищется по сырому пути
	r.UseRawPath = true
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	tmpl, err := web.Templates(funcMap())
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true})
	r.Use(sessions.Sessions("admin_session", store))

	r.Use(middleware.InjectFlash())

	h := deps.Handler

	// АДМИНКА
	admin := r.Group("/admin")
	admin.GET("", h.Dashboard)
	admin.GET("/:model", h.ListRecords)
	admin.GET("/:model/:id/edit", h.ShowEdit)
	admin.GET("/:model/:id/history", h.ShowHistory)
	admin.PUT("/:model/:id", h.UpdateRecord)
	admin.PATCH("/:model/:id", h.UpdateRecord)
	// обычная HTML-форма присылает POST с _method=put
	admin.POST("/:model/:id", h.UpdateRecord)

	// HEALTHCHECK / METRICS
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	return r, nil
}
