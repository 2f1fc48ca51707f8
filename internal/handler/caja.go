package handler

import (
	"net/http"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/middleware"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CajaHandler exposes the daily cash record. Days are addressed as
// YYYY-MM-DD (or "hoy") in the store's time zone.
type CajaHandler struct {
	svc service.CajaService
	loc *time.Location
}

func NewCajaHandler(svc service.CajaService, loc *time.Location) *CajaHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CajaHandler{svc: svc, loc: loc}
}

// ObtenerDia godoc
// @Summary Fondo inicial y efectivo esperado del día
// @Description Sin registro del día el fondo es el valor por defecto y fondo_por_defecto es true.
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param fecha path string true "AAAA-MM-DD u hoy"
// @Success 200 {object} dto.CajaDiaResponse
// @Router /v1/caja/{fecha} [get]
func (h *CajaHandler) ObtenerDia(c *gin.Context) {
	dia, ok := paramFecha(c, "fecha", h.loc)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerDia(c.Request.Context(), dia)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FijarFondo godoc
// @Summary Fijar el fondo inicial del día
// @Description Un día cerrado no se modifica; la respuesta refleja el registro existente.
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param fecha path string true "AAAA-MM-DD u hoy"
// @Param body body dto.FijarFondoRequest true "Monto"
// @Success 200 {object} dto.CajaDiaResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/caja/{fecha}/fondo [put]
func (h *CajaHandler) FijarFondo(c *gin.Context) {
	dia, ok := paramFecha(c, "fecha", h.loc)
	if !ok {
		return
	}
	var req dto.FijarFondoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FijarFondo(c.Request.Context(), dia, *req.Monto)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CerrarDia godoc
// @Summary Cierre manual del día
// @Description Registra el efectivo contado y clasifica el desvío contra el esperado.
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param fecha path string true "AAAA-MM-DD u hoy"
// @Param body body dto.CerrarDiaRequest true "Efectivo contado"
// @Success 200 {object} dto.CierreResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/caja/{fecha}/cierre [post]
func (h *CajaHandler) CerrarDia(c *gin.Context) {
	dia, ok := paramFecha(c, "fecha", h.loc)
	if !ok {
		return
	}
	var req dto.CerrarDiaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CerrarDia(c.Request.Context(), dia, *req.EfectivoContado)
	if err != nil {
		responderError(c, err)
		return
	}
	if claims := middleware.GetClaims(c); claims != nil {
		log.Info().Str("operador", claims.Username).Str("fecha", resp.Fecha).
			Str("clasificacion", resp.Desvio.Clasificacion).Msg("cierre de caja")
	}
	c.JSON(http.StatusOK, resp)
}
