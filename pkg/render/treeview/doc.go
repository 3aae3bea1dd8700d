// Package treeview draws the block tree of a document as a node-link
// diagram, for debugging pagination.
//
// [ToDOT] emits Graphviz DOT with one node per block and parent → child
// edges in document order. When a composition result is supplied, each
// block is filled with the colour of the page it landed on and labelled
// with its page number. [RenderSVG] lays the graph out with an embedded
// Graphviz build, so no external binary is needed.
package treeview
