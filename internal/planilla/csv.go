package planilla

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/darielruizg/Puntodeventa/internal/dto"
)

// LeerCSV parses {SKU?, Nombre, Precio, Stock?} rows. Rows missing Nombre
// or Precio are skipped. Stock lands in the tienda bucket. When the file
// carries the export breakdown columns those win instead.
func LeerCSV(r io.Reader) ([]dto.ImportarProductoRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cabecera, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("planilla: leer cabecera: %w", err)
	}
	h := indexar(cabecera)
	conDetalle := h.tiene(ColTienda) || h.tiene(ColBodega) || h.tiene(ColExhibicion)

	var recs []dto.ImportarProductoRecord
	for n := 1; ; n++ {
		fila, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("planilla: fila %d: %w", n, err)
		}
		if vacia(fila) {
			continue
		}
		nombre, precioRaw := h.valor(fila, ColNombre), h.valor(fila, ColPrecio)
		if nombre == "" || precioRaw == "" {
			continue
		}
		precio, err := parsePrecio(precioRaw)
		if err != nil {
			return nil, &FilaError{Fila: n, Motivo: "precio invalido " + strconv.Quote(precioRaw)}
		}

		rec := dto.ImportarProductoRecord{
			SKU:    h.valor(fila, ColSKU),
			Nombre: nombre,
			Precio: precio,
		}
		if conDetalle {
			d, err := leerDetalle(h, fila, n)
			if err != nil {
				return nil, err
			}
			rec.StockDetalle = d
			rec.Stock = d.Tienda + d.Bodega + d.Exhibicion
		} else {
			col := ColStock
			if !h.tiene(col) {
				col = ColStockTotal
			}
			stock, err := parseCantidad(h.valor(fila, col))
			if err != nil {
				return nil, &FilaError{Fila: n, Motivo: "stock invalido: " + err.Error()}
			}
			rec.Stock = stock
			rec.StockDetalle = &dto.StockDetalle{Tienda: stock}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// EscribirCSV writes the export shape with Spanish headers.
func EscribirCSV(w io.Writer, recs []dto.ImportarProductoRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(encabezadoExport); err != nil {
		return err
	}
	for _, r := range recs {
		d := detalleExport(r)
		if err := cw.Write([]string{
			r.SKU,
			r.Nombre,
			r.Precio.StringFixed(2),
			strconv.Itoa(r.Stock),
			strconv.Itoa(d.Tienda),
			strconv.Itoa(d.Bodega),
			strconv.Itoa(d.Exhibicion),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
