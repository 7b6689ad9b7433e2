package parsing

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Canonical column names consumed by the signal processor. Unrecognized
// instrument columns pass through under their original header, never
// discarded.
const (
	ColumnTime         = "time"
	ColumnCurrent      = "current"
	ColumnGateVoltage  = "gate_voltage"
	ColumnDrainVoltage = "drain_voltage"
	ColumnLaserVoltage = "laser_voltage"
)

// columnAliases maps lowercase instrument header prefixes to the canonical
// vocabulary. Matching is case-insensitive on the name part before any unit
// parenthesis.
var columnAliases = map[string]string{
	"t":    ColumnTime,
	"time": ColumnTime,
	"i":    ColumnCurrent,
	"id":   ColumnCurrent,
	"isd":  ColumnCurrent,
	"vg":   ColumnGateVoltage,
	"vds":  ColumnDrainVoltage,
	"vsd":  ColumnDrainVoltage,
	"vl":   ColumnLaserVoltage,
}

// NormalizeColumn maps an instrument column header to the canonical
// vocabulary. The mapping is total: an unrecognized header is returned
// unchanged (trimmed) rather than dropped.
func NormalizeColumn(header string) string {
	name := strings.TrimSpace(header)
	if idx := strings.Index(name, "("); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	if canonical, ok := columnAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return strings.TrimSpace(header)
}

// looksLikeColumnHeader reports whether a line is plausibly the
// comma-separated column header of the data table. Used when the #Data:
// marker is absent.
func looksLikeColumnHeader(line string) bool {
	if !strings.Contains(line, ",") {
		return false
	}
	recognized := 0
	for _, field := range strings.Split(line, ",") {
		switch NormalizeColumn(field) {
		case ColumnTime, ColumnCurrent, ColumnGateVoltage, ColumnDrainVoltage, ColumnLaserVoltage:
			recognized++
		}
	}
	return recognized >= 2
}

// DataBlock is the numeric table of one measurement file, addressed by
// canonical column name.
type DataBlock struct {
	// Columns holds the normalized column names in file order.
	Columns []string
	columns map[string][]float64
}

// ReadDataBlock loads the data table of a measurement file, locating it by
// the #Data: marker or, failing that, the column-header heuristic.
func ReadDataBlock(path string) (*DataBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data block: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header, err := seekDataSection(reader)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, 8)
	for _, field := range strings.Split(header, ",") {
		names = append(names, NormalizeColumn(field))
	}

	block := &DataBlock{
		Columns: names,
		columns: make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		block.columns[name] = nil
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read data row: %w", err)
		}
		for i, name := range names {
			if i >= len(row) {
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("parse data value %q in column %s: %w", row[i], name, err)
			}
			block.columns[name] = append(block.columns[name], v)
		}
	}
	return block, nil
}

// seekDataSection advances the reader past the header and returns the
// column-header line of the data table.
func seekDataSection(reader *bufio.Reader) (string, error) {
	sawMarker := false
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			return "", fmt.Errorf("no data section found")
		}
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("scan for data section: %w", err)
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if sawMarker {
			return trimmed, nil
		}
		switch {
		case strings.HasPrefix(trimmed, markerData):
			sawMarker = true
		case !strings.HasPrefix(trimmed, "#") && looksLikeColumnHeader(trimmed):
			return trimmed, nil
		}
		if err == io.EOF {
			return "", fmt.Errorf("no data section found")
		}
	}
}

// Column returns the samples of the given canonical column; the second
// result is false when the column is absent from the file.
func (b *DataBlock) Column(name string) ([]float64, bool) {
	values, ok := b.columns[name]
	return values, ok
}

// Len returns the number of samples in the first column.
func (b *DataBlock) Len() int {
	for _, name := range b.Columns {
		return len(b.columns[name])
	}
	return 0
}
