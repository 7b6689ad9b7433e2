package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chipcli/internal/services"
	"chipcli/pkg/contracts/domain"
)

func signalsTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	itPath := filepath.Join(dir, "It2024-05-12_1.csv")
	require.NoError(t, os.WriteFile(itPath, []byte(`#Procedure: <class 'laser_setup.procedures.It'>
#Parameters:
#	Laser ON+OFF period: 120 s
#Data:
t (s),I (A)
0.0,1.0
60.0,3.0
120.0,2.0
`), 0o644))

	ivgPath := filepath.Join(dir, "IVg2024-05-12_2.csv")
	require.NoError(t, os.WriteFile(ivgPath, []byte(`#Procedure: <class 'laser_setup.procedures.IVg'>
#Parameters:
#Data:
Vg (V),I (A)
0.0,0.0
1.0,2.0
2.0,4.0
1.0,2.1
0.0,0.1
`), 0o644))

	period := 120.0
	history := &domain.ChipHistory{
		Entries: []domain.HistoryEntry{
			{Seq: 1, Record: domain.MeasurementRecord{
				SourcePath: itPath, Procedure: domain.ProcedureTimeSeries,
				LaserPeriod: &period, HasLight: domain.LightOn,
			}},
			{Seq: 2, Record: domain.MeasurementRecord{
				SourcePath: ivgPath, Procedure: domain.ProcedureGateSweep,
				HasLight: domain.LightOff,
			}},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewSignalsHandler(&staticProvider{history: history}, services.NewSignalService(logger), logger)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server
}

func TestGetBaseline(t *testing.T) {
	server := signalsTestServer(t)

	t.Run("auto mode uses the record's laser period", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/baseline/1?mode=auto")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Time    []float64 `json:"time"`
			Current []float64 `json:"current"`
			T0      *float64  `json:"t0"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.T0)
		assert.Equal(t, 60.0, *body.T0)
		assert.InDelta(t, 0, body.Current[1], 1e-12)
	})

	t.Run("bad mode is an internal computation error", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/baseline/1?mode=median")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("unknown seq", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/baseline/99")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetTransconductance(t *testing.T) {
	server := signalsTestServer(t)

	t.Run("segment gaps serialize as nulls", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/transconductance/2")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Voltage []*float64 `json:"voltage"`
			Gm      []*float64 `json:"gm"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		// Up segment, null gap, down segment.
		require.Len(t, body.Gm, 6)
		assert.Nil(t, body.Gm[3])
		require.NotNil(t, body.Gm[0])
		assert.InDelta(t, 2.0, *body.Gm[0], 1e-9)
	})

	t.Run("time series rejected", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/transconductance/1")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetScheduleCheck(t *testing.T) {
	server := signalsTestServer(t)

	resp, err := http.Get(server.URL + "/schedule-check?seqs=1&tolerance=0.05")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Consistent bool `json:"consistent"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Consistent)
}
