package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct {
	svc     service.VentaService
	negocio string
	loc     *time.Location
}

func NewVentasHandler(svc service.VentaService, negocio string, loc *time.Location) *VentasHandler {
	return &VentasHandler{svc: svc, negocio: negocio, loc: loc}
}

// RegistrarVenta godoc
// @Summary      Registrar una nueva venta
// @Description  Confirma el carrito en una transacción: guarda la venta y descuenta stock por línea. Las líneas cuyo SKU ya no existe se registran igual, sin descuento.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVentaRequest true "Carrito y método de pago"
// @Success      201  {object} dto.VentaResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ventas [post]
func (h *VentasHandler) RegistrarVenta(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ObtenerVenta godoc
// @Summary      Obtener venta
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {object} dto.VentaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id} [get]
func (h *VentasHandler) ObtenerVenta(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.VentaToResponse(v, h.loc))
}

// Ticket godoc
// @Summary      Ticket PDF de una venta
// @Tags         ventas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id}/ticket [get]
func (h *VentasHandler) Ticket(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := infra.RenderTicketPDF(&buf, v, h.negocio, h.loc); err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="ticket_`+v.ID.String()[:8]+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
