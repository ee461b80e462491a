// Package diag carries structured diagnostics from the backend phases to the
// CLI. Phases report through the Reporter interface; the driver collects into
// a Bag, sorts it, and renders it once at the end of the run.
package diag
