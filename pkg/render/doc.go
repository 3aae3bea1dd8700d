// Package render rebuilds export-ready page trees from a composition.
//
// # Overview
//
// [Render] takes a [compose.Result] and the [document.Document] it was
// computed from and returns one content tree per page. Every node carries
// page-absolute geometry, so page count, page dimensions and the final
// position of each block can be read back without the source document.
//
//	res, _ := compose.Compose(doc)
//	out, err := render.Render(res, doc)
//
// # Placement Reconstruction
//
// An atomic placement clones the block's whole subtree, laying children out
// top to bottom under the block's own chrome. A fragment placement (a
// container split across pages) yields only the container itself; its
// descendants are attached as they are placed. When a page starts in the
// middle of a container, the missing ancestors are recreated with
// [Node.Continued] set, and their bounds are stretched over the children
// they hold on that page.
//
// # Decoration Stripping
//
// Rendering is the only stage allowed to drop authoring decoration. Meta
// keys used by the editor (selection, hover, grid and guide overlays, and
// any key prefixed with "editor:" or "editor.") are removed, and nodes
// whose meta marks them authoringOnly are dropped with their subtree.
// Geometry is unaffected: dropped nodes still occupy their measured space.
//
// # Output
//
// The [sink] subpackage serializes a [Rendered] value to JSON, an SVG
// wireframe or a PDF wireframe. The [treeview] subpackage draws the block
// tree itself, tinted by page, for debugging.
package render
