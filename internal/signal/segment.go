package signal

// Segment is a maximal run of sweep samples with monotonic (non-decreasing
// or non-increasing) gate voltage. Taking a derivative across a sweep
// reversal would produce a spurious spike at the turning point, so segments
// are differentiated independently.
type Segment struct {
	Voltage []float64
	Current []float64
}

// SplitSegments splits a (voltage, current) sample sequence at sweep
// reversals and collapses consecutive duplicate-voltage samples within each
// segment by averaging their currents. Duplicate voltages would otherwise
// divide by zero in a finite-difference derivative.
//
// A strictly monotonic sweep of N points yields one segment of length N; an
// up-then-down sweep yields two segments whose lengths sum to N minus any
// collapsed duplicates.
func SplitSegments(voltage, current []float64) []Segment {
	n := len(voltage)
	if n == 0 {
		return nil
	}

	var segments []Segment
	start := 0
	direction := 0
	for k := 1; k < n; k++ {
		dv := voltage[k] - voltage[k-1]
		if dv == 0 {
			continue
		}
		step := 1
		if dv < 0 {
			step = -1
		}
		if direction == 0 {
			direction = step
			continue
		}
		if step != direction {
			segments = append(segments, collapseDuplicates(voltage[start:k], current[start:k]))
			start = k
			direction = step
		}
	}
	segments = append(segments, collapseDuplicates(voltage[start:], current[start:]))
	return segments
}

// collapseDuplicates merges consecutive samples sharing the same voltage,
// averaging their currents.
func collapseDuplicates(voltage, current []float64) Segment {
	seg := Segment{
		Voltage: make([]float64, 0, len(voltage)),
		Current: make([]float64, 0, len(current)),
	}
	for k := 0; k < len(voltage); {
		j := k
		sum := 0.0
		for j < len(voltage) && voltage[j] == voltage[k] {
			sum += current[j]
			j++
		}
		seg.Voltage = append(seg.Voltage, voltage[k])
		seg.Current = append(seg.Current, sum/float64(j-k))
		k = j
	}
	return seg
}
