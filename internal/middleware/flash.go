package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash хранит сообщения, оставленные предыдущим запросом (обычно перед редиректом).
type Flash struct {
	Success []string
	Error   []string
}

func (f Flash) Empty() bool {
	return len(f.Success) == 0 && len(f.Error) == 0
}

// InjectFlash забирает flash-сообщения из сессии и кладёт их в контекст.
func InjectFlash() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		var flash Flash
		for _, v := range sess.Flashes(FlashSuccess) {
			if s, ok := v.(string); ok {
				flash.Success = append(flash.Success, s)
			}
		}
		for _, v := range sess.Flashes(FlashError) {
			if s, ok := v.(string); ok {
				flash.Error = append(flash.Error, s)
			}
		}

		if !flash.Empty() {
			_ = sess.Save()
			c.Set("Flash", flash)
		}

		c.Next()
	}
}

// AddFlash сохраняет сообщение для следующего запроса.
func AddFlash(c *gin.Context, kind, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg, kind)
	_ = sess.Save()
}
