package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chipcli/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

type staticProvider struct {
	history *domain.ChipHistory
}

func (p *staticProvider) History() *domain.ChipHistory { return p.history }

func testHistory() *domain.ChipHistory {
	three := 3
	return &domain.ChipHistory{
		Columns: []string{"start_time", "laser_voltage", "has_light"},
		Entries: []domain.HistoryEntry{
			{
				Seq: 1,
				Record: domain.MeasurementRecord{
					SourcePath:   "data/2024-05-11/IVg2024-05-11_1.csv",
					Procedure:    domain.ProcedureGateSweep,
					FileIndex:    1,
					StartTime:    f64(1715400000),
					ChipGroup:    "Margarita",
					ChipNumber:   &three,
					LaserVoltage: f64(0),
					HasLight:     domain.LightOff,
				},
				Role: domain.RolePreSweep,
			},
			{
				Seq: 2,
				Record: domain.MeasurementRecord{
					SourcePath: "data/2024-05-11/It2024-05-11_2.csv",
					Procedure:  domain.ProcedureTimeSeries,
					FileIndex:  2,
					ChipGroup:  "Daiquiri",
					HasLight:   domain.LightUnknown,
				},
				Role: domain.RoleTimeSeries,
			},
		},
	}
}

func newHistoryServer(history *domain.ChipHistory) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHistoryHandler(&staticProvider{history: history}, logger)
	return httptest.NewServer(handler.Routes())
}

func getJSON(t *testing.T, url string) (int, historyResponse) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body historyResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestGetHistory(t *testing.T) {
	server := newHistoryServer(testHistory())
	defer server.Close()

	status, body := getJSON(t, server.URL+"/")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, []string{"start_time", "laser_voltage", "has_light"}, body.Columns)

	// Present fields carry values; absent fields are explicit nulls.
	first := body.Rows[0]
	assert.EqualValues(t, 1, first["seq"])
	assert.Equal(t, "IVg", first["procedure"])
	assert.Equal(t, "0", first["laser_voltage"])

	second := body.Rows[1]
	assert.Nil(t, second["start_time"])
	assert.Nil(t, second["laser_voltage"])
	assert.Equal(t, "unknown", second["has_light"])
}

func TestGetHistoryFilters(t *testing.T) {
	server := newHistoryServer(testHistory())
	defer server.Close()

	t.Run("seqs filter keeps original seq values", func(t *testing.T) {
		status, body := getJSON(t, server.URL+"/?seqs=2")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Rows, 1)
		assert.EqualValues(t, 2, body.Rows[0]["seq"])
	})

	t.Run("chip filter", func(t *testing.T) {
		status, body := getJSON(t, server.URL+"/?chip_group=Margarita&chip_number=3")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Rows, 1)
		assert.EqualValues(t, 1, body.Rows[0]["seq"])
	})

	t.Run("procedure filter", func(t *testing.T) {
		status, body := getJSON(t, server.URL+"/?procedure=It")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Rows, 1)
		assert.Equal(t, "It", body.Rows[0]["procedure"])
	})

	t.Run("bad seqs parameter", func(t *testing.T) {
		status, _ := getJSON(t, server.URL+"/?seqs=1,two")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestGetEntry(t *testing.T) {
	server := newHistoryServer(testHistory())
	defer server.Close()

	t.Run("existing seq", func(t *testing.T) {
		status, body := getJSON(t, server.URL+"/2")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, body.Rows, 1)
		assert.Equal(t, "time-series", body.Rows[0]["role"])
	})

	t.Run("unknown seq", func(t *testing.T) {
		status, _ := getJSON(t, server.URL+"/99")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("non-numeric seq", func(t *testing.T) {
		status, _ := getJSON(t, server.URL+"/abc")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestHistoryNotBuilt(t *testing.T) {
	server := newHistoryServer(nil)
	defer server.Close()

	status, _ := getJSON(t, server.URL+"/")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
