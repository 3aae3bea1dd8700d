package sink

import (
	"bytes"
	"fmt"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/matzehuels/pagesetter/pkg/render"
)

// pxToPt converts CSS pixels (96 dpi) to PDF points (72 dpi).
const pxToPt = 0.75

// PDFOption configures [RenderPDF].
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	title   string
	labels  bool
	created time.Time
}

// WithPDFTitle sets the document title metadata.
func WithPDFTitle(title string) PDFOption { return func(r *pdfRenderer) { r.title = title } }

// WithPDFLabels writes each node's id in its top-left corner.
func WithPDFLabels() PDFOption { return func(r *pdfRenderer) { r.labels = true } }

// WithCreationDate fixes the creation timestamp, making output reproducible.
func WithCreationDate(t time.Time) PDFOption { return func(r *pdfRenderer) { r.created = t } }

// RenderPDF draws the wireframe of every page as a PDF page of the same size.
func RenderPDF(out render.Rendered, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: out.Template.Width * pxToPt, Ht: out.Template.Height * pxToPt},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("pagesetter", true)
	if r.title != "" {
		pdf.SetTitle(r.title, true)
	}
	if !r.created.IsZero() {
		pdf.SetCreationDate(r.created)
		pdf.SetModificationDate(r.created)
	}
	pdf.SetFont("Helvetica", "", 8)

	for i := range out.Pages {
		r.renderPage(pdf, &out.Pages[i])
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r pdfRenderer) renderPage(pdf *fpdf.Fpdf, p *render.Page) {
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Width * pxToPt, Ht: p.Height * pxToPt})
	pdf.SetLineWidth(0.5)

	p.Walk(func(n *render.Node, _ int) {
		if n.Fragment || n.Continued {
			pdf.SetDashPattern([]float64{4, 2}, 0)
		} else {
			pdf.SetDashPattern(nil, 0)
		}
		pdf.SetDrawColor(37, 99, 235)
		pdf.Rect(n.X*pxToPt, n.Y*pxToPt, n.Width*pxToPt, n.Height*pxToPt, "D")
		if r.labels {
			pdf.SetTextColor(31, 41, 55)
			pdf.Text(n.X*pxToPt+2, n.Y*pxToPt+8, n.ID)
		}
	})
	pdf.SetDashPattern(nil, 0)
}
