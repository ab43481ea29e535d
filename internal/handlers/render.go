package handlers

import (
	"recordadmin/internal/middleware"

	"github.com/gin-gonic/gin"
)

// render оборачивает c.HTML и во все шаблоны прокидывает flash-сообщения.
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	// flash, явно переданный обработчиком, важнее сохранённого в сессии
	if _, ok := data["Flash"]; !ok {
		if v, ok := c.Get("Flash"); ok {
			if f, ok := v.(middleware.Flash); ok {
				data["Flash"] = f
			}
		}
	}

	c.HTML(status, tmpl, data)
}
