// Package exporter writes the aggregated chip history and derived signals
// to CSV files and to an Excel workbook. Every writer takes its full output
// path as an argument; there is no process-wide output directory state.
package exporter
