package handler

import (
	"io"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/eventos"

	"github.com/gin-gonic/gin"
)

const keepAliveSSE = 25 * time.Second

// Eventos godoc
// @Summary Feed de cambios (Server-Sent Events)
// @Description Emite un evento por cada producto, venta o cierre confirmado. El nombre del evento es la entidad.
// @Tags eventos
// @Produce text/event-stream
// @Security BearerAuth
// @Router /v1/eventos [get]
func Eventos(feed eventos.Publicador) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel := feed.Suscribir(c.Request.Context())
		defer cancel()

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")

		ping := time.NewTicker(keepAliveSSE)
		defer ping.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(ev.Entidad, ev)
				return true
			case <-ping.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
