package sink

import (
	"io"

	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/render"
)

// Output format names.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatSVG, FormatPDF}

// Extension returns the file extension for a format.
func Extension(format string) string { return "." + format }

// Render serializes out in the given format with default options.
func Render(format string, out render.Rendered) ([]byte, error) {
	switch format {
	case FormatJSON:
		return RenderJSON(out, WithIndent())
	case FormatSVG:
		return RenderSVG(out, WithLabels()), nil
	case FormatPDF:
		return RenderPDF(out, WithPDFLabels())
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported output format %q", format)
	}
}

// Write renders out in the given format to w.
func Write(w io.Writer, format string, out render.Rendered) error {
	data, err := Render(format, out)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
