// Package chartforge compiles chart requests over tabular data into chart
// specifications, composes them into subplot grids and exports them.
//
// The pipeline lives in application; interfaces/cli, interfaces/http and
// interfaces/mcp expose it.
package chartforge

// Version is the release of this module.
const Version = "0.1.0"
