package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/apierror"
	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/planilla"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct {
	svc service.ReporteService
	loc *time.Location
}

func NewReportesHandler(svc service.ReporteService, loc *time.Location) *ReportesHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportesHandler{svc: svc, loc: loc}
}

// ventana resolves periodo + ancla. Without an explicit periodo the layout
// of ancla decides it: "2024-02" is a month, "2024" a year.
func (h *ReportesHandler) ventana(c *gin.Context) (service.Granularidad, time.Time, bool) {
	var filter dto.ReporteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return "", time.Time{}, false
	}
	if !validar(c, &filter) {
		return "", time.Time{}, false
	}
	ancla, g, err := service.ParseAncla(filter.Ancla, h.loc, time.Now())
	if err != nil {
		responderError(c, err)
		return "", time.Time{}, false
	}
	if c.Query("periodo") != "" {
		g = service.Granularidad(filter.Periodo)
	}
	return g, ancla, true
}

// Ventas godoc
// @Summary Ventas de un día, mes o año
// @Description Ventas con fecha dentro de la ventana local inclusive y totales por método de pago.
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param periodo query string false "dia | mes | anio"
// @Param ancla   query string false "AAAA-MM-DD, AAAA-MM o AAAA (default hoy)"
// @Success 200 {object} dto.ReporteVentasResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/reportes/ventas [get]
func (h *ReportesHandler) Ventas(c *gin.Context) {
	g, ancla, ok := h.ventana(c)
	if !ok {
		return
	}
	resp, err := h.svc.Reporte(c.Request.Context(), g, ancla)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VentasXLSX godoc
// @Summary Exportar ventas a XLSX
// @Description Una fila por ítem vendido.
// @Tags reportes
// @Produce octet-stream
// @Security BearerAuth
// @Param periodo query string false "dia | mes | anio"
// @Param ancla   query string false "AAAA-MM-DD, AAAA-MM o AAAA (default hoy)"
// @Success 200 {file} file
// @Router /v1/reportes/ventas/xlsx [get]
func (h *ReportesHandler) VentasXLSX(c *gin.Context) {
	g, ancla, ok := h.ventana(c)
	if !ok {
		return
	}
	ventas, err := h.svc.VentasEnVentana(c.Request.Context(), g, ancla)
	if err != nil {
		responderError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := planilla.EscribirVentasXLSX(&buf, ventas, h.loc); err != nil {
		_ = c.Error(err)
		return
	}
	desde, _ := service.VentanaDe(g, ancla)
	nombre := "ventas_" + string(g) + "_" + desde.Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, planilla.FormatoXLSX.ContentType(), buf.Bytes())
}
