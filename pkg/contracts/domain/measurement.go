package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Procedure identifies the experiment type recorded in a measurement file.
// The value is the trailing identifier of the instrument's procedure class
// path (e.g. "laser_setup.procedures.IVg" -> IVg).
type Procedure string

const (
	// ProcedureGateSweep is a gate-voltage sweep (IVg curve).
	ProcedureGateSweep Procedure = "IVg"
	// ProcedureDrainSweep is a drain-source voltage sweep.
	ProcedureDrainSweep Procedure = "IV"
	// ProcedureGateSweepTemp is a gate sweep with temperature logging.
	ProcedureGateSweepTemp Procedure = "IVgT"
	// ProcedureTimeSeries is a current-vs-time measurement.
	ProcedureTimeSeries Procedure = "It"
	// ProcedureTimeSeriesTemp is a time series with temperature logging.
	ProcedureTimeSeriesTemp Procedure = "ItT"
	// ProcedureLaserCalibration is a laser power calibration run.
	ProcedureLaserCalibration Procedure = "Pt"
	// ProcedureTemperatureSeries is a temperature-vs-time measurement.
	ProcedureTemperatureSeries Procedure = "Tt"
)

// KnownProcedures lists every procedure identifier the parser accepts.
var KnownProcedures = []Procedure{
	ProcedureGateSweep,
	ProcedureDrainSweep,
	ProcedureGateSweepTemp,
	ProcedureTimeSeries,
	ProcedureTimeSeriesTemp,
	ProcedureLaserCalibration,
	ProcedureTemperatureSeries,
}

// IsKnown reports whether p is one of the recognized procedure identifiers.
func (p Procedure) IsKnown() bool {
	for _, known := range KnownProcedures {
		if p == known {
			return true
		}
	}
	return false
}

// IsGateSweep reports whether the procedure sweeps the gate voltage.
// Both the plain and temperature-logged variants count.
func (p Procedure) IsGateSweep() bool {
	return p == ProcedureGateSweep || p == ProcedureGateSweepTemp
}

// IsTimeSeries reports whether the procedure records current against time.
func (p Procedure) IsTimeSeries() bool {
	return p == ProcedureTimeSeries || p == ProcedureTimeSeriesTemp
}

// LightState is the three-valued illumination classification of a
// measurement. It is never collapsed to a boolean by this module; callers
// that need a two-valued answer must default LightUnknown explicitly.
type LightState string

const (
	// LightOn means the laser was on during the measurement.
	LightOn LightState = "on"
	// LightOff means the laser was explicitly off (including a header
	// voltage of exactly zero).
	LightOff LightState = "off"
	// LightUnknown means no classification method produced an answer.
	LightUnknown LightState = "unknown"
)

// String returns the state's wire representation.
func (s LightState) String() string {
	if s == "" {
		return string(LightUnknown)
	}
	return string(s)
}

// ExtraField is a header field the parser did not recognize, retained
// verbatim so later stages still see it. Order of appearance is preserved.
type ExtraField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MeasurementRecord is the typed metadata extracted from one measurement
// file's header. Optional numeric fields are pointers: nil means the header
// did not carry the field, never a zero standing in for "missing".
type MeasurementRecord struct {
	SourcePath   string    `json:"source_path" validate:"required"`
	SourceFolder string    `json:"source_folder"`
	Procedure    Procedure `json:"procedure" validate:"required"`
	FileIndex    int       `json:"file_index" validate:"min=0"`

	// StartTime is epoch seconds from the metadata section, absent when
	// the header lacks it.
	StartTime *float64 `json:"start_time,omitempty"`

	ChipGroup  string `json:"chip_group,omitempty"`
	ChipNumber *int   `json:"chip_number,omitempty"`

	// Gate voltage: fixed value for time series, start/end/step for sweeps.
	VG      *float64 `json:"vg,omitempty"`
	VGStart *float64 `json:"vg_start,omitempty"`
	VGEnd   *float64 `json:"vg_end,omitempty"`
	VGStep  *float64 `json:"vg_step,omitempty"`

	// Drain-source voltage, fixed or swept depending on procedure.
	VDS      *float64 `json:"vds,omitempty"`
	VDSStart *float64 `json:"vds_start,omitempty"`
	VDSEnd   *float64 `json:"vds_end,omitempty"`

	LaserVoltage    *float64 `json:"laser_voltage,omitempty"`
	LaserWavelength *float64 `json:"laser_wavelength,omitempty"`
	// LaserPeriod is the laser ON+OFF cycle length in seconds.
	LaserPeriod *float64 `json:"laser_period,omitempty"`

	HasLight LightState `json:"has_light" validate:"required,oneof=on off unknown"`

	// Extra holds unrecognized header fields verbatim.
	Extra []ExtraField `json:"extra,omitempty"`
}

var recordValidator = validator.New()

// Validate checks the record's structural invariants once at construction.
// The parser calls this before handing a record to any other component.
func (r *MeasurementRecord) Validate() error {
	if !r.Procedure.IsKnown() {
		return fmt.Errorf("unknown procedure %q", r.Procedure)
	}
	if err := recordValidator.Struct(r); err != nil {
		return fmt.Errorf("record validation failed: %w", err)
	}
	return nil
}

// HasStartTime reports whether the header carried a start timestamp.
func (r *MeasurementRecord) HasStartTime() bool {
	return r.StartTime != nil
}

// TimeOfDay renders the start time as a local wall-clock display string,
// empty when the timestamp is absent.
func (r *MeasurementRecord) TimeOfDay() string {
	if r.StartTime == nil {
		return ""
	}
	sec := int64(*r.StartTime)
	nsec := int64((*r.StartTime - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Format("15:04:05")
}

// CompareRecords orders two records chronologically: records with a start
// time sort before records without one, then by start time, then by file
// index. A zero result means the caller needs a further tie-break.
func CompareRecords(a, b *MeasurementRecord) int {
	switch {
	case a.HasStartTime() && !b.HasStartTime():
		return -1
	case !a.HasStartTime() && b.HasStartTime():
		return 1
	case a.HasStartTime() && b.HasStartTime():
		if *a.StartTime < *b.StartTime {
			return -1
		}
		if *a.StartTime > *b.StartTime {
			return 1
		}
	}
	switch {
	case a.FileIndex < b.FileIndex:
		return -1
	case a.FileIndex > b.FileIndex:
		return 1
	}
	return 0
}
