package handler

import (
	"net/http"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/scanner"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/gin-gonic/gin"
)

type EscanerHandler struct{ svc service.EscanerService }

func NewEscanerHandler(svc service.EscanerService) *EscanerHandler { return &EscanerHandler{svc: svc} }

// Procesar godoc
// @Summary Clasificar pulsaciones de teclado
// @Description Recibe las teclas capturadas por la terminal y devuelve los códigos de escáner detectados, ya resueltos contra el catálogo, junto con los índices de teclas cuyo efecto debe cancelarse.
// @Tags escaner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ProcesarTeclasRequest true "Teclas"
// @Success 200 {object} dto.ProcesarTeclasResponse
// @Router /v1/escaner/eventos [post]
func (h *EscanerHandler) Procesar(c *gin.Context) {
	var req dto.ProcesarTeclasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	eventos := make([]scanner.KeyEvent, 0, len(req.Eventos))
	for _, ev := range req.Eventos {
		eventos = append(eventos, scanner.KeyEvent{Key: ev.Tecla, At: time.UnixMilli(ev.TsMs)})
	}
	resp, err := h.svc.Procesar(c.Request.Context(), eventos)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
