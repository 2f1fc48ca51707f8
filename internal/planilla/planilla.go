// Package planilla reads and writes catalog spreadsheets (CSV and XLSX)
// and the sales export. It only shapes rows; validation and the upsert
// itself belong to the inventory service.
package planilla

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/darielruizg/Puntodeventa/internal/dto"

	"github.com/shopspring/decimal"
)

type Formato string

const (
	FormatoCSV  Formato = "csv"
	FormatoXLSX Formato = "xlsx"
)

// Export headers, in column order.
const (
	ColSKU        = "SKU"
	ColNombre     = "Nombre"
	ColPrecio     = "Precio"
	ColStock      = "Stock"
	ColStockTotal = "Stock Total"
	ColTienda     = "Stock Tienda"
	ColBodega     = "Stock Bodega"
	ColExhibicion = "Stock Exhibición"
)

var encabezadoExport = []string{ColSKU, ColNombre, ColPrecio, ColStockTotal, ColTienda, ColBodega, ColExhibicion}

var ErrFormato = errors.New("planilla: formato no soportado")

// FilaError points at the offending data row (1-based, header excluded).
type FilaError struct {
	Fila   int
	Motivo string
}

func (e *FilaError) Error() string { return fmt.Sprintf("planilla: fila %d: %s", e.Fila, e.Motivo) }

// ParseFormato accepts "csv"/"xlsx" or a file name ending in one of them.
func ParseFormato(s string) (Formato, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	switch Formato(s) {
	case FormatoCSV:
		return FormatoCSV, nil
	case FormatoXLSX:
		return FormatoXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormato, s)
}

// Leer parses a catalog file in the given format.
func Leer(r io.Reader, f Formato) ([]dto.ImportarProductoRecord, error) {
	switch f {
	case FormatoCSV:
		return LeerCSV(r)
	case FormatoXLSX:
		return LeerXLSX(r)
	}
	return nil, ErrFormato
}

// Escribir writes the catalog export in the given format.
func Escribir(w io.Writer, f Formato, recs []dto.ImportarProductoRecord) error {
	switch f {
	case FormatoCSV:
		return EscribirCSV(w, recs)
	case FormatoXLSX:
		return EscribirXLSX(w, recs)
	}
	return ErrFormato
}

// ContentType is the MIME type of a format.
func (f Formato) ContentType() string {
	if f == FormatoXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ── Row helpers ───────────────────────────────────────────────────────────────

// encabezados maps normalized header names to their column index. Accents
// on "exhibición" are folded so both spellings match.
type encabezados map[string]int

func indexar(fila []string) encabezados {
	h := encabezados{}
	for i, c := range fila {
		k := normalizar(c)
		if _, dup := h[k]; !dup {
			h[k] = i
		}
	}
	return h
}

func normalizar(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "ó", "o")
}

func (h encabezados) tiene(col string) bool {
	_, ok := h[normalizar(col)]
	return ok
}

func (h encabezados) valor(fila []string, col string) string {
	i, ok := h[normalizar(col)]
	if !ok || i >= len(fila) {
		return ""
	}
	return strings.TrimSpace(fila[i])
}

func vacia(fila []string) bool {
	for _, c := range fila {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parsePrecio reads "$1.250,50", "1,250.50", "12,5" or "12.5". Whichever
// of comma or dot comes last is the decimal separator; the other one groups
// thousands and is dropped.
func parsePrecio(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return decimal.Zero, nil
	}
	coma, punto := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case coma > punto:
		s = strings.NewReplacer(".", "", ",", "").Replace(s[:coma]) + "." + s[coma+1:]
	case coma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

// parseCantidad reads a whole quantity; spreadsheets often store "5" as "5.0".
func parseCantidad(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%s no es un entero", s)
	}
	return int(d.IntPart()), nil
}

// detalleExport falls back to a tienda-only breakdown for products stored
// without one, so re-importing the file keeps their stock.
func detalleExport(r dto.ImportarProductoRecord) dto.StockDetalle {
	if r.StockDetalle != nil {
		return *r.StockDetalle
	}
	return dto.StockDetalle{Tienda: r.Stock}
}
