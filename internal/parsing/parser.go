package parsing

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"chipcli/pkg/contracts/domain"
)

// Section marker lines of the instrument file format.
const (
	markerProcedure  = "#Procedure:"
	markerParameters = "#Parameters:"
	markerMetadata   = "#Metadata:"
	markerData       = "#Data:"
)

// fileIndexRe extracts the trailing integer from filenames like
// "IVg2024-05-12_3.csv". The index orders files within a day when the
// timestamp is absent or ambiguous.
var fileIndexRe = regexp.MustCompile(`_(\d+)\.[A-Za-z0-9]+$`)

// ParseError reports a structurally unreadable header. Missing optional
// fields never produce a ParseError; batch callers log it and continue with
// the remaining files.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// ParseFile reads one measurement file's header and returns the typed
// record, including the illumination classification. The data block is only
// loaded when the classifier needs it.
func ParseFile(path string) (*domain.MeasurementRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "open file", Err: err}
	}
	defer f.Close()

	record, err := parseHeader(f, path)
	if err != nil {
		return nil, err
	}

	record.HasLight = ClassifyIllumination(record, path)

	if err := record.Validate(); err != nil {
		return nil, &ParseError{Path: path, Reason: "invalid record", Err: err}
	}
	return record, nil
}

// parseHeader scans the parameter and metadata sections up to the start of
// the data block and maps each recognized field onto the record. Unknown
// fields are retained verbatim in record.Extra.
func parseHeader(f *os.File, path string) (*domain.MeasurementRecord, error) {
	record := &domain.MeasurementRecord{
		SourcePath:   filepath.ToSlash(path),
		SourceFolder: filepath.ToSlash(filepath.Dir(path)),
		FileIndex:    fileIndex(path),
		HasLight:     domain.LightUnknown,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sawSection := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, markerData):
			if !sawSection {
				return nil, &ParseError{Path: path, Reason: "data marker before any header section"}
			}
			return record, nil
		case strings.HasPrefix(line, markerProcedure):
			sawSection = true
			proc, ok := procedureFromPath(strings.TrimSpace(strings.TrimPrefix(line, markerProcedure)))
			if !ok {
				return nil, &ParseError{Path: path, Reason: fmt.Sprintf("unrecognized procedure line %q", line)}
			}
			record.Procedure = proc
		case line == markerParameters || line == markerMetadata:
			sawSection = true
		case strings.HasPrefix(line, "#"):
			name, value, ok := splitHeaderField(line)
			if !ok {
				continue
			}
			applyField(record, name, value)
		default:
			// No #Data: marker seen; fall back to treating the first line
			// that looks like a column header as the start of the table.
			if looksLikeColumnHeader(line) {
				if !sawSection {
					return nil, &ParseError{Path: path, Reason: "no header sections before data table"}
				}
				return record, nil
			}
			return nil, &ParseError{Path: path, Reason: fmt.Sprintf("unexpected line %q in header", line)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Reason: "read header", Err: err}
	}
	if !sawSection {
		return nil, &ParseError{Path: path, Reason: "missing header sections"}
	}
	// A header-only file (no data block) is still a valid record.
	return record, nil
}

// splitHeaderField splits a "#<TAB>Field name: value" line into its parts.
func splitHeaderField(line string) (name, value string, ok bool) {
	body := strings.TrimLeft(strings.TrimPrefix(line, "#"), " \t")
	idx := strings.Index(body, ":")
	if idx <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(body[:idx]), strings.TrimSpace(body[idx+1:]), true
}

// applyField maps one header field onto the record, keeping unrecognized
// fields verbatim. Optional numeric fields stay nil when the value does not
// parse, never a placeholder zero.
func applyField(record *domain.MeasurementRecord, name, value string) {
	switch normalizeFieldName(name) {
	case "chip group name":
		record.ChipGroup = value
	case "chip number":
		if n, ok := parseInt(value); ok {
			record.ChipNumber = &n
		}
	case "vg":
		record.VG = parseOptionalNumber(value)
	case "vg start":
		record.VGStart = parseOptionalNumber(value)
	case "vg end":
		record.VGEnd = parseOptionalNumber(value)
	case "vg step":
		record.VGStep = parseOptionalNumber(value)
	case "vds", "vsd":
		record.VDS = parseOptionalNumber(value)
	case "vds start", "vsd start":
		record.VDSStart = parseOptionalNumber(value)
	case "vds end", "vsd end":
		record.VDSEnd = parseOptionalNumber(value)
	case "laser voltage":
		record.LaserVoltage = parseOptionalNumber(value)
	case "laser wavelength":
		record.LaserWavelength = parseOptionalNumber(value)
	case "laser on+off period", "laser period", "laser toggle period":
		record.LaserPeriod = parseOptionalNumber(value)
	case "start time":
		record.StartTime = parseOptionalNumber(value)
	case "procedure":
		if proc, ok := procedureFromPath(value); ok {
			record.Procedure = proc
		}
	default:
		record.Extra = append(record.Extra, domain.ExtraField{Name: name, Value: value})
	}
}

// normalizeFieldName lowercases and collapses whitespace so header field
// matching tolerates instrument-era spelling drift.
func normalizeFieldName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// procedureFromPath recovers the procedure identifier from a free-text
// class path such as "<class 'laser_setup.procedures.IVg'>". The last
// dotted component must be a known identifier.
func procedureFromPath(value string) (domain.Procedure, bool) {
	trimmed := strings.Trim(value, "<>'\" ")
	trimmed = strings.TrimPrefix(trimmed, "class ")
	trimmed = strings.Trim(trimmed, "<>'\" ")
	parts := strings.Split(trimmed, ".")
	proc := domain.Procedure(parts[len(parts)-1])
	return proc, proc.IsKnown()
}

// CoercedValue is a header value narrowed to its natural type, in priority
// order: bool, int64, float64, verbatim string.
type CoercedValue struct {
	Bool   *bool
	Int    *int64
	Float  *float64
	String string
}

// Coerce narrows a raw header value. Numeric parsing accepts scientific
// notation and trailing unit suffixes ("3.5 V" -> 3.5).
func Coerce(value string) CoercedValue {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "true":
		b := true
		return CoercedValue{Bool: &b, String: trimmed}
	case "false":
		b := false
		return CoercedValue{Bool: &b, String: trimmed}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return CoercedValue{Int: &n, String: trimmed}
	}
	if f, ok := parseNumber(trimmed); ok {
		return CoercedValue{Float: &f, String: trimmed}
	}
	return CoercedValue{String: trimmed}
}

// parseNumber parses a float, tolerating a trailing unit suffix separated
// by whitespace ("0.075 V", "405 nm", "1.2e-6 A").
func parseNumber(value string) (float64, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseOptionalNumber returns a pointer to the parsed value, or nil when the
// value is not numeric.
func parseOptionalNumber(value string) *float64 {
	if f, ok := parseNumber(value); ok {
		return &f
	}
	slog.Debug("header value not numeric, keeping absent", "value", value)
	return nil
}

// parseInt parses an integer, tolerating a trailing unit suffix.
func parseInt(value string) (int, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// fileIndex extracts the trailing integer from the filename; 0 when the
// filename carries none.
func fileIndex(path string) int {
	m := fileIndexRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
