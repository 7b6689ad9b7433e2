package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "chipcli/internal/errors"
	"chipcli/internal/services"
	"chipcli/internal/signal"
)

// SignalsHandler serves derived signals computed on demand from raw data
// blocks.
type SignalsHandler struct {
	provider HistoryProvider
	signals  *services.SignalService
	logger   *slog.Logger
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(provider HistoryProvider, signals *services.SignalService, logger *slog.Logger) *SignalsHandler {
	return &SignalsHandler{
		provider: provider,
		signals:  signals,
		logger:   logger.With(slog.String("component", "signals_handler")),
	}
}

// Routes returns the signal routes.
func (h *SignalsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/baseline/{seq}", h.GetBaseline)
	r.Get("/transconductance/{seq}", h.GetTransconductance)
	r.Get("/schedule-check", h.GetScheduleCheck)
	return r
}

// GetBaseline returns a baseline-corrected time series for one entry.
// Query parameters: mode (none|fixed|zero|auto), t0, divisor.
func (h *SignalsHandler) GetBaseline(w http.ResponseWriter, r *http.Request) {
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

	opts := signal.BaselineOptions{Mode: signal.BaselineNone}
	q := r.URL.Query()
	if mode := q.Get("mode"); mode != "" {
		opts.Mode = signal.BaselineMode(mode)
	}
	if raw := q.Get("t0"); raw != "" {
		t0, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			render.Render(w, r, apierrors.InvalidParameter("t0", err))
			return
		}
		opts.T0 = t0
	}
	if raw := q.Get("divisor"); raw != "" {
		divisor, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			render.Render(w, r, apierrors.InvalidParameter("divisor", err))
			return
		}
		opts.Divisor = divisor
	}

	result, err := h.signals.Baseline(r.Context(), entry, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "baseline computation failed",
			slog.Int("seq", seq), slog.String("error", err.Error()))
		render.Render(w, r, apierrors.InternalError(err))
		return
	}
	render.JSON(w, r, result)
}

// GetTransconductance returns a dI/dVg curve for one gate-sweep entry.
// Query parameters: method (gradient|filtered), window, order.
func (h *SignalsHandler) GetTransconductance(w http.ResponseWriter, r *http.Request) {
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

	opts := signal.TransconductanceOptions{Method: signal.MethodGradient}
	q := r.URL.Query()
	if method := q.Get("method"); method != "" {
		opts.Method = signal.DerivativeMethod(method)
	}
	if raw := q.Get("window"); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil {
			render.Render(w, r, apierrors.InvalidParameter("window", err))
			return
		}
		opts.Window = window
	}
	if raw := q.Get("order"); raw != "" {
		order, err := strconv.Atoi(raw)
		if err != nil {
			render.Render(w, r, apierrors.InvalidParameter("order", err))
			return
		}
		opts.Order = order
	}

	result, err := h.signals.Transconductance(r.Context(), entry, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "transconductance computation failed",
			slog.Int("seq", seq), slog.String("error", err.Error()))
		render.Render(w, r, apierrors.InternalError(err))
		return
	}
	render.JSON(w, r, toTransconductanceResponse(result))
}

// transconductanceResponse is the wire shape of a dI/dVg curve. The NaN gap
// markers between sweep segments become JSON nulls, which encoding/json
// cannot represent as float64.
type transconductanceResponse struct {
	Voltage  []*float64       `json:"voltage"`
	Gm       []*float64       `json:"gm"`
	Warnings []signal.Warning `json:"warnings,omitempty"`
}

func toTransconductanceResponse(result signal.Transconductance) transconductanceResponse {
	return transconductanceResponse{
		Voltage:  nullableSamples(result.Voltage),
		Gm:       nullableSamples(result.Gm),
		Warnings: result.Warnings,
	}
}

// nullableSamples maps NaN to nil and keeps every other sample.
func nullableSamples(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			v := values[i]
			out[i] = &v
		}
	}
	return out
}

// GetScheduleCheck runs the duration-consistency check over a seq list.
// Query parameters: seqs (required), tolerance.
func (h *SignalsHandler) GetScheduleCheck(w http.ResponseWriter, r *http.Request) {
	history := h.provider.History()
	if history == nil {
		render.Render(w, r, apierrors.ErrHistoryNotBuilt)
		return
	}
	q := r.URL.Query()
	seqs, err := parseSeqList(q.Get("seqs"))
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("seqs", err))
		return
	}
	tolerance := 0.0
	if raw := q.Get("tolerance"); raw != "" {
		tolerance, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			render.Render(w, r, apierrors.InvalidParameter("tolerance", err))
			return
		}
	}
	report := h.signals.CheckSchedule(r.Context(), history.BySeqs(seqs), tolerance)
	render.JSON(w, r, report)
}
