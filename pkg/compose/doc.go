// Package compose paginates a document snapshot into fixed-size pages.
//
// [Compose] is a pure function: the same [document.Document] always yields
// the same [Result], it performs no I/O and it is safe to call concurrently.
//
// # Algorithm
//
// The tree is flattened into a stream of units. A unit is either atomic
// (a leaf block, a group item, a group that may not split) or the chrome of
// a container whose paginatable descendants follow it in the stream. Break
// policies of a container propagate to its first and last units.
//
// Adjacent units are joined into chains when the first keeps with the next,
// or when a breakAfter: avoid meets a breakBefore: avoid. A forced break
// (breakBefore: before, breakAfter: after) always separates chains.
//
// Chains are placed front to back on the current page; a chain that does
// not fit starts a new page. A chain taller than a whole page is split back
// into its units. A single unit taller than a page is placed at the top of
// a fresh page and reported with a warning.
//
// # Groups
//
// When a page boundary falls inside a splittable group the engine checks the
// group's orphans (items left at the bottom of the page) and widows (items
// leading the next page) minimums:
//
//   - too few orphans: the group's run is pushed to the next page
//   - too few widows: the boundary moves earlier so the next page receives
//     enough items, or the whole run moves when that is impossible
//
// Orphans are checked first; a boundary that violates both is resolved by
// the orphans rule alone. Each adjustment is reported once.
//
// # Warnings
//
// Overflow is never an error. [Result.Warnings] lists, in detection order,
// every oversized block or group and every orphans/widows adjustment.
package compose
