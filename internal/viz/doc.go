// Package viz renders feature distributions in the terminal.
//
// [Histogram] bins a column, [Plot] draws it with asciigraph, and [Browser]
// is a Bubble Tea model that lists the features of a preprocessing run with
// their frozen limits next to the raw and preprocessed distribution of the
// selected one.
//
// # Key Bindings
//
//	j/k, ↑/↓ - Select feature
//	tab      - Cycle which distributions are drawn
//	q        - Quit
package viz
