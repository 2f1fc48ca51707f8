package planilla

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	hojaInventario = "Inventario"
	hojaVentas     = "Ventas"
)

// LeerXLSX parses the first sheet. Rows without SKU are skipped; a missing
// name becomes "Producto Sin Nombre". The breakdown columns always set the
// stock; "Stock Total" is used only when the sheet has no breakdown columns.
func LeerXLSX(r io.Reader) ([]dto.ImportarProductoRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("planilla: abrir xlsx: %w", err)
	}
	defer f.Close()

	hojas := f.GetSheetList()
	if len(hojas) == 0 {
		return nil, nil
	}
	filas, err := f.GetRows(hojas[0])
	if err != nil {
		return nil, fmt.Errorf("planilla: leer hoja %s: %w", hojas[0], err)
	}
	if len(filas) == 0 {
		return nil, nil
	}

	h := indexar(filas[0])
	conDetalle := h.tiene(ColTienda) || h.tiene(ColBodega) || h.tiene(ColExhibicion)

	var recs []dto.ImportarProductoRecord
	for i, fila := range filas[1:] {
		n := i + 1
		sku := h.valor(fila, ColSKU)
		if sku == "" {
			continue
		}
		nombre := h.valor(fila, ColNombre)
		if nombre == "" {
			nombre = "Producto Sin Nombre"
		}
		precio, err := parsePrecio(h.valor(fila, ColPrecio))
		if err != nil {
			return nil, &FilaError{Fila: n, Motivo: "precio invalido " + strconv.Quote(h.valor(fila, ColPrecio))}
		}

		rec := dto.ImportarProductoRecord{SKU: sku, Nombre: nombre, Precio: precio}
		if conDetalle {
			d, err := leerDetalle(h, fila, n)
			if err != nil {
				return nil, err
			}
			rec.StockDetalle = d
			rec.Stock = d.Tienda + d.Bodega + d.Exhibicion
		} else {
			total, err := parseCantidad(h.valor(fila, ColStockTotal))
			if err != nil {
				return nil, &FilaError{Fila: n, Motivo: "stock total invalido: " + err.Error()}
			}
			rec.Stock = total
			rec.StockDetalle = &dto.StockDetalle{Tienda: total}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func leerDetalle(h encabezados, fila []string, n int) (*dto.StockDetalle, error) {
	var d dto.StockDetalle
	for _, c := range []struct {
		col string
		dst *int
	}{
		{ColTienda, &d.Tienda},
		{ColBodega, &d.Bodega},
		{ColExhibicion, &d.Exhibicion},
	} {
		v, err := parseCantidad(h.valor(fila, c.col))
		if err != nil {
			return nil, &FilaError{Fila: n, Motivo: c.col + " invalido: " + err.Error()}
		}
		*c.dst = v
	}
	return &d, nil
}

// EscribirXLSX writes the export shape to a single "Inventario" sheet.
func EscribirXLSX(w io.Writer, recs []dto.ImportarProductoRecord) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", hojaInventario); err != nil {
		return err
	}

	if err := escribirFila(f, hojaInventario, 1, toRow(encabezadoExport)); err != nil {
		return err
	}
	for i, r := range recs {
		d := detalleExport(r)
		fila := []interface{}{
			r.SKU, r.Nombre, r.Precio.InexactFloat64(),
			r.Stock, d.Tienda, d.Bodega, d.Exhibicion,
		}
		if err := escribirFila(f, hojaInventario, i+2, fila); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(hojaInventario, "B", "B", 36)
	return f.Write(w)
}

var encabezadoVentas = []string{
	"ID Venta", "Fecha", "Hora", "Producto", "SKU",
	"Cantidad", "Precio Unitario", "Total Línea", "Método de Pago",
}

// EscribirVentasXLSX writes one row per sold item. Dates are rendered in loc.
func EscribirVentasXLSX(w io.Writer, ventas []model.Venta, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", hojaVentas); err != nil {
		return err
	}

	if err := escribirFila(f, hojaVentas, 1, toRow(encabezadoVentas)); err != nil {
		return err
	}
	n := 2
	for _, v := range ventas {
		fecha := v.Fecha.In(loc)
		for _, it := range v.Items {
			fila := []interface{}{
				v.ID.String(),
				fecha.Format("2006-01-02"),
				fecha.Format("15:04:05"),
				it.Nombre,
				it.SKU,
				it.Cantidad,
				it.Precio.InexactFloat64(),
				it.Subtotal().InexactFloat64(),
				model.EtiquetaMetodo(v.MetodoPago),
			}
			if err := escribirFila(f, hojaVentas, n, fila); err != nil {
				return err
			}
			n++
		}
	}
	return f.Write(w)
}

func escribirFila(f *excelize.File, hoja string, fila int, valores []interface{}) error {
	celda, err := excelize.CoordinatesToCellName(1, fila)
	if err != nil {
		return err
	}
	return f.SetSheetRow(hoja, celda, &valores)
}

func toRow(cols []string) []interface{} {
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}
