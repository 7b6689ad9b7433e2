package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "chipcli/internal/errors"
	"chipcli/internal/chronology"
	"chipcli/pkg/contracts/domain"
)

// HistoryProvider supplies the current chip history. The scan service
// rebuilds it wholesale; the handler never mutates it.
type HistoryProvider interface {
	History() *domain.ChipHistory
}

// HistoryHandler serves the aggregated chip history table.
type HistoryHandler struct {
	provider HistoryProvider
	logger   *slog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(provider HistoryProvider, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		provider: provider,
		logger:   logger.With(slog.String("component", "history_handler")),
	}
}

// Routes returns the history routes.
func (h *HistoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetHistory)
	r.Get("/{seq}", h.GetEntry)
	return r
}

// historyResponse is the wire shape of the history table: one row per
// record keyed by seq, all optional fields explicit nulls when absent.
type historyResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// GetHistory returns the history table, optionally filtered by chip,
// procedure or an explicit seq list. Filtering never renumbers: rows keep
// their original seq values.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history := h.provider.History()
	if history == nil {
		render.Render(w, r, apierrors.ErrHistoryNotBuilt)
		return
	}

	entries := history.Entries
	q := r.URL.Query()

	if raw := q.Get("seqs"); raw != "" {
		seqs, err := parseSeqList(raw)
		if err != nil {
			render.Render(w, r, apierrors.InvalidParameter("seqs", err))
			return
		}
		entries = history.BySeqs(seqs)
	}
	if group := q.Get("chip_group"); group != "" {
		number := -1
		if rawNum := q.Get("chip_number"); rawNum != "" {
			n, err := strconv.Atoi(rawNum)
			if err != nil {
				render.Render(w, r, apierrors.InvalidParameter("chip_number", err))
				return
			}
			number = n
		}
		entries = filterEntries(entries, history, group, number)
	}
	if proc := q.Get("procedure"); proc != "" {
		var kept []domain.HistoryEntry
		for _, e := range entries {
			if e.Record.Procedure == domain.Procedure(proc) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	render.JSON(w, r, buildResponse(history.Columns, entries))
}

// GetEntry returns a single history row by seq.
func (h *HistoryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	history := h.provider.History()
	if history == nil {
		render.Render(w, r, apierrors.ErrHistoryNotBuilt)
		return
	}
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("seq", err))
		return
	}
	entry := history.Entry(seq)
	if entry == nil {
		render.Render(w, r, apierrors.NotFoundError("history entry"))
		return
	}
	render.JSON(w, r, buildResponse(history.Columns, []domain.HistoryEntry{*entry}))
}

// filterEntries applies the chip filter while keeping seq values intact.
func filterEntries(entries []domain.HistoryEntry, history *domain.ChipHistory, group string, number int) []domain.HistoryEntry {
	subset := (&domain.ChipHistory{Entries: entries, Columns: history.Columns}).ByChip(group, number)
	return subset
}

// buildResponse renders entries as union-schema rows with explicit nulls.
func buildResponse(columns []string, entries []domain.HistoryEntry) historyResponse {
	resp := historyResponse{Columns: columns, Rows: make([]map[string]any, 0, len(entries))}
	for i := range entries {
		e := &entries[i]
		row := map[string]any{
			"seq":         e.Seq,
			"source_path": e.Record.SourcePath,
			"procedure":   string(e.Record.Procedure),
			"file_index":  e.Record.FileIndex,
			"role":        string(e.Role),
		}
		for _, col := range columns {
			if value, present := chronology.ColumnValue(e, col); present {
				row[col] = value
			} else {
				row[col] = nil
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}

// parseSeqList parses a comma-separated seq list such as "52,57,58".
func parseSeqList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	seqs := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, n)
	}
	return seqs, nil
}
