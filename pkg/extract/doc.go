// Package extract projects an authored canvas into a document snapshot.
//
// The host editor owns the canvas; this package needs only a read
// projection of it, the [Canvas] and [CanvasNode] interfaces. Two
// projections ship with the package: [ReadJSONCanvas] for the editor's JSON
// export and [ReadHTMLCanvas] for rendered HTML carrying data-* attributes.
//
// # Measurement
//
// Canvas bounds are in screen space. [Extract] divides every length by the
// canvas zoom so the resulting [document.Document] does not depend on the
// zoom level the author was working at. Decoration is measured like any
// other content; it is stripped later, by the renderer.
//
// # Policy Attributes
//
//	breakBefore     auto | before | avoid      (default auto)
//	breakAfter      auto | after | avoid       (default auto)
//	keepWithNext    true | false               (default false)
//	allowItemSplit  true | false               (groups, default true)
//	orphans         non-negative integer       (groups, default 1)
//	widows          non-negative integer       (groups, default 1)
package extract
