package parsing

import (
	"log/slog"

	"chipcli/pkg/contracts/domain"
)

// LaserOnThreshold is the voltage above which the laser counts as on. The
// instrument noise floor requires margin above exact zero.
const LaserOnThreshold = 0.1

// lightEvaluator is one step of the classification chain. It returns the
// classification and whether it produced a definite answer.
type lightEvaluator func(record *domain.MeasurementRecord, path string) (domain.LightState, bool)

// lightEvaluators is the ordered fallback chain. Each step runs only when
// every earlier step produced no answer.
var lightEvaluators = []lightEvaluator{
	classifyByHeaderVoltage,
	classifyByMeasuredChannel,
}

// ClassifyIllumination runs the multi-method fallback chain for a record.
// A present header laser voltage is definitive, including an explicit zero;
// the measured channel is consulted only when the header field is entirely
// absent. Remaining ambiguity yields LightUnknown, never an error.
func ClassifyIllumination(record *domain.MeasurementRecord, path string) domain.LightState {
	for _, evaluate := range lightEvaluators {
		if state, ok := evaluate(record, path); ok {
			return state
		}
	}
	return domain.LightUnknown
}

// classifyByHeaderVoltage decides from the applied laser voltage in the
// header. The header reflects the experimenter's intent, so it is preferred
// over the measured channel even when that channel is noisy.
func classifyByHeaderVoltage(record *domain.MeasurementRecord, _ string) (domain.LightState, bool) {
	if record.LaserVoltage == nil {
		return domain.LightUnknown, false
	}
	if *record.LaserVoltage >= LaserOnThreshold {
		return domain.LightOn, true
	}
	return domain.LightOff, true
}

// classifyByMeasuredChannel inspects the laser-voltage channel of the data
// block. Any sample at or above the threshold means on; a complete, present
// column entirely below it means off. I/O or format errors are logged and
// fall through to the next step, never propagated.
func classifyByMeasuredChannel(record *domain.MeasurementRecord, path string) (domain.LightState, bool) {
	block, err := ReadDataBlock(path)
	if err != nil {
		slog.Warn("could not read data block for illumination check",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return domain.LightUnknown, false
	}
	samples, ok := block.Column(ColumnLaserVoltage)
	if !ok || len(samples) == 0 {
		return domain.LightUnknown, false
	}
	for _, v := range samples {
		if v >= LaserOnThreshold {
			return domain.LightOn, true
		}
	}
	return domain.LightOff, true
}
