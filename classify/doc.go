// Package classify refines region labels using cross-page statistics.
//
// Layout analysis labels regions one page at a time; some labels only
// become certain when the whole document is visible. Text that repeats
// at the same normalized vertical position on enough pages is a running
// header, footer, or page number no matter what a single-page pass
// called it. Small-font blocks anchored above the footer with a
// reference-marker prefix are footnotes.
//
// The classifier runs in explicit phases: first it collects normalized
// occurrence statistics from every page, then it relabels. Running it a
// second time over its own output changes nothing.
package classify
