package domain

// HistoryEntry is one row of a chip's cross-day history table.
type HistoryEntry struct {
	// Seq is the dense chronological identifier, starting at 1. It is a
	// pure function of the input file set: re-aggregating unchanged inputs
	// yields the same seq for the same file. Inserting an earlier-dated
	// day shifts later seq values; that is a documented limitation.
	Seq    int               `json:"seq"`
	Record MeasurementRecord `json:"record"`
	Role   Role              `json:"role"`
}

// ChipHistory is the time-ordered history of every experiment for one chip
// across all scanned days. Entries are sorted by seq; filtering never
// renumbers.
type ChipHistory struct {
	Entries []HistoryEntry `json:"entries"`
	// Columns is the union of optional-field columns present across all
	// entries, in export order. Records missing a column carry an explicit
	// absent marker there, never a zero.
	Columns []string `json:"columns"`
}

// BySeqs returns the entries whose seq appears in seqs, preserving history
// order and original seq values. Unknown seq values are ignored.
func (h *ChipHistory) BySeqs(seqs []int) []HistoryEntry {
	want := make(map[int]bool, len(seqs))
	for _, s := range seqs {
		want[s] = true
	}
	var out []HistoryEntry
	for _, e := range h.Entries {
		if want[e.Seq] {
			out = append(out, e)
		}
	}
	return out
}

// ByChip returns the entries for the given chip group and number, keeping
// original seq values. An empty group matches any group; a negative number
// matches any number.
func (h *ChipHistory) ByChip(group string, number int) []HistoryEntry {
	var out []HistoryEntry
	for _, e := range h.Entries {
		if group != "" && e.Record.ChipGroup != group {
			continue
		}
		if number >= 0 {
			if e.Record.ChipNumber == nil || *e.Record.ChipNumber != number {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// ByProcedure returns the entries matching the given procedure, keeping
// original seq values.
func (h *ChipHistory) ByProcedure(p Procedure) []HistoryEntry {
	var out []HistoryEntry
	for _, e := range h.Entries {
		if e.Record.Procedure == p {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the entry with the given seq, or nil when absent.
func (h *ChipHistory) Entry(seq int) *HistoryEntry {
	for i := range h.Entries {
		if h.Entries[i].Seq == seq {
			return &h.Entries[i]
		}
	}
	return nil
}
