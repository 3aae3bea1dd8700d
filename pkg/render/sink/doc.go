// Package sink serializes rendered pages.
//
// # Formats
//
//   - JSON: the lossless page trees, for downstream exporters
//   - SVG: a wireframe preview with pages stacked vertically
//   - PDF: the same wireframe, one PDF page per rendered page
//
// [Write] dispatches on a format name; the format-specific functions take
// functional options:
//
//	svg := sink.RenderSVG(out, sink.WithLabels(), sink.WithGap(24))
//	pdf, err := sink.RenderPDF(out, sink.WithPDFTitle("CV"))
//
// Wireframes draw one rectangle per node. Fragments and continued
// containers are dashed so split content is easy to spot.
package sink
