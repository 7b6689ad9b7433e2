// Package services wires discovery, parsing, timeline building and
// aggregation into the operations the CLI tools and HTTP transport consume.
// Per-file parse failures are isolated and reported in the scan summary;
// they never abort the batch.
package services
