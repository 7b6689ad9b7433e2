// Package files discovers measurement data on disk: day folders under the
// data root and the instrument files inside each of them. Discovery is
// read-only; results are immutable snapshots handed to the parser.
package files
