// Package parsing turns raw measurement files into typed MeasurementRecords.
// It consolidates header extraction, value coercion, data-block reading and
// illumination classification into a cohesive package covering the complete
// per-file lifecycle.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Parser: splits a file into parameter/metadata/data sections and coerces
// header values into the typed record
// 2. DataBlock: reads the comma-separated data table and normalizes
// instrument column names to a fixed vocabulary
// 3. Classifier: the multi-method illumination fallback chain
//
// # Usage
//
// Basic parsing example:
//
//	record, err := parsing.ParseFile("2024-05-12/IVg2024-05-12_3.csv")
//	if err != nil {
//	    var perr *parsing.ParseError
//	    if errors.As(err, &perr) {
//	        // malformed header; skip this file, continue the batch
//	    }
//	}
//
// # Error Handling
//
// Missing optional header fields never produce an error; only a structurally
// unreadable header does. ParseError carries the file path and the reason so
// batch callers can log and continue.
package parsing
