package infra

// pdf.go — receipts and shelf labels using go-pdf/fpdf.
// Receipts are 74mm wide thermal tickets; labels are 55×35mm pages, one
// Code128 symbol of the SKU per page. Only committed sales and persisted
// products are rendered.

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/model"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"
)

// FechaTicket is the date line printed on a receipt, in the store's zone.
func FechaTicket(venta *model.Venta, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return venta.Fecha.In(loc).Format("02/01/2006 15:04:05")
}

// RenderTicketPDF writes the receipt of a committed sale to w. Dates are
// printed in loc.
func RenderTicketPDF(w io.Writer, venta *model.Venta, negocio string, loc *time.Location) error {
	// Height grows with the number of lines so long tickets are not cut.
	alto := 70 + float64(len(venta.Items))*9
	if alto < 105 {
		alto = 105
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: alto},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(negocio), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, FechaTicket(venta, loc), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, "Ticket #"+venta.ID.String()[:8], "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.16 // qty
	col2 := contentW * 0.52 // product
	col3 := contentW * 0.32 // subtotal

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Cant", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, tr("Descripción"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "Importe", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := []rune(item.Nombre)
		if len(nombre) > 24 {
			nombre = append(nombre[:23], '.')
		}
		pdf.CellFormat(col1, 4, fmt.Sprintf("%d", item.Cantidad), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 4, tr(string(nombre)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+item.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
		if item.Cantidad > 1 {
			pdf.SetFont("Helvetica", "I", 6)
			pdf.CellFormat(col1, 3, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(col2+col3, 3, "(Unit: $"+item.Precio.StringFixed(2)+")", "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 7)
		}
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Total + payment ──────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, tr("Método de pago: "+model.EtiquetaMetodo(venta.MetodoPago)), "", 1, "L", false, 0, "")

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW, 4, tr("¡GRACIAS POR SU COMPRA!"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("¡VUELVA PRONTO!"), "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// GenerateTicketPDF writes the receipt to storagePath/ticket_{id}.pdf
// (directory created if needed) and returns the file path.
func GenerateTicketPDF(venta *model.Venta, negocio, storagePath string, loc *time.Location) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("ticket_%s.pdf", venta.ID))

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("pdf: create file: %w", err)
	}
	defer f.Close()

	if err := RenderTicketPDF(f, venta, negocio, loc); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// RenderEtiquetasPDF writes one 55×35mm label per product and copy: name (two
// lines at most), price and the Code128 symbol of the SKU. A SKU Code128
// cannot encode is printed as text instead.
func RenderEtiquetasPDF(w io.Writer, productos []model.Producto, copias int) error {
	if copias < 1 {
		copias = 1
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 55, Ht: 35},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(2.5, 2, 2.5)
	pdf.SetAutoPageBreak(false, 0)

	const pageW = 55.0
	for i := range productos {
		p := &productos[i]
		imgName := ""
		if img, err := codigoBarrasPNG(p.SKU); err == nil {
			imgName = "sku_" + p.ID.String()
			pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img))
		}

		for c := 0; c < copias; c++ {
			pdf.AddPage()

			pdf.SetFont("Helvetica", "B", 8)
			lineas := pdf.SplitText(tr(p.Nombre), 50)
			if len(lineas) > 2 {
				lineas = lineas[:2]
			}
			pdf.SetXY(2.5, 2)
			for _, l := range lineas {
				pdf.CellFormat(50, 3.5, l, "", 1, "C", false, 0, "")
			}

			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetXY(2.5, 9.5)
			pdf.CellFormat(50, 5, "$"+p.Precio.StringFixed(2), "", 1, "C", false, 0, "")

			if imgName != "" {
				pdf.ImageOptions(imgName, 5, 15, 45, 13, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			}
			pdf.SetFont("Helvetica", "", 7)
			pdf.SetXY(2.5, 29)
			pdf.CellFormat(pageW-5, 3, p.SKU, "", 1, "C", false, 0, "")
		}
	}
	if len(productos) == 0 {
		pdf.AddPage()
	}
	return pdf.Output(w)
}

func codigoBarrasPNG(sku string) ([]byte, error) {
	bc, err := code128.Encode(sku)
	if err != nil {
		return nil, err
	}
	ancho := bc.Bounds().Dx()
	if ancho < 400 {
		ancho = 400
	}
	scaled, err := barcode.Scale(bc, ancho, 100)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NombreEtiquetas is the download name of a label sheet: etiqueta_<name>.pdf
// for a single product, etiquetas_<date>.pdf otherwise.
func NombreEtiquetas(productos []model.Producto, hoy time.Time) string {
	if len(productos) == 1 {
		seguro := []rune{}
		for _, r := range productos[0].Nombre {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				seguro = append(seguro, r)
			case r >= 'A' && r <= 'Z':
				seguro = append(seguro, r+('a'-'A'))
			default:
				seguro = append(seguro, '_')
			}
		}
		return "etiqueta_" + string(seguro) + ".pdf"
	}
	return "etiquetas_" + hoy.Format("2006-01-02") + ".pdf"
}
