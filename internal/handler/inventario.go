package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/apierror"
	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/planilla"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxPlanilla caps uploaded catalog files.
const maxPlanilla = 10 << 20

// InventarioHandler serves the stock-facing endpoints: restock list,
// movement history, bulk import/export and shelf labels.
type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// ParaReponer godoc
// @Summary      Productos para reponer
// @Description  Productos con stock por debajo del umbral de reposición.
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductoResponse
// @Router       /v1/productos/reponer [get]
func (h *InventarioHandler) ParaReponer(c *gin.Context) {
	resp, err := h.svc.ParaReponer(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) Movimientos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Movimientos(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Importar godoc
// @Summary      Importación masiva
// @Description  Upsert por SKU desde CSV o XLSX (campo multipart "archivo"). Un SKU existente conserva su id.
// @Tags         inventario
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        archivo formData file true "Planilla .csv o .xlsx"
// @Success      200 {object} dto.ImportarResultado
// @Failure      400 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/productos/importar [post]
func (h *InventarioHandler) Importar(c *gin.Context) {
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el archivo (campo 'archivo')"))
		return
	}
	if fh.Size > maxPlanilla {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("Archivo demasiado grande"))
		return
	}
	formato, err := planilla.ParseFormato(fh.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Formato no soportado, use .csv o .xlsx"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	recs, err := planilla.Leer(f, formato)
	if err != nil {
		var fe *planilla.FilaError
		if errors.As(err, &fe) {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{fmt.Sprintf("fila_%d", fe.Fila): fe.Motivo}))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer la planilla: "+err.Error()))
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("No se encontraron filas validas en el archivo"))
		return
	}

	resp, err := h.svc.ImportarMasivo(c.Request.Context(), recs)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Exportar godoc
// @Summary      Exportar inventario
// @Tags         inventario
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        formato query string false "xlsx | csv (default xlsx)"
// @Success      200 {file} file
// @Router       /v1/productos/exportar [get]
func (h *InventarioHandler) Exportar(c *gin.Context) {
	formato, err := planilla.ParseFormato(c.DefaultQuery("formato", string(planilla.FormatoXLSX)))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Formato no soportado, use csv o xlsx"))
		return
	}
	recs, err := h.svc.Exportar(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := planilla.Escribir(&buf, formato, recs); err != nil {
		_ = c.Error(err)
		return
	}
	nombre := fmt.Sprintf("inventario_%s.%s", time.Now().Format("2006-01-02"), formato)
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, formato.ContentType(), buf.Bytes())
}

// Etiquetas godoc
// @Summary      Etiquetas con código de barras
// @Description  PDF con una etiqueta de 55×35mm por producto y copia.
// @Tags         inventario
// @Accept       json
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        body body dto.EtiquetasRequest true "Productos y copias"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/etiquetas [post]
func (h *InventarioHandler) Etiquetas(c *gin.Context) {
	var req dto.EtiquetasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, s := range req.IDs {
		ids = append(ids, uuid.MustParse(s))
	}
	productos, err := h.svc.ObtenerVarios(c.Request.Context(), ids)
	if err != nil {
		responderError(c, err)
		return
	}
	if len(productos) == 0 {
		c.JSON(http.StatusNotFound, apierror.New("Ningun producto encontrado"))
		return
	}

	var buf bytes.Buffer
	if err := infra.RenderEtiquetasPDF(&buf, productos, req.Copias); err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+infra.NombreEtiquetas(productos, time.Now())+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
