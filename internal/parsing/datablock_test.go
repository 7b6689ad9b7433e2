package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"t (s)", ColumnTime},
		{"Time (s)", ColumnTime},
		{"I (A)", ColumnCurrent},
		{"ID (A)", ColumnCurrent},
		{"Isd (A)", ColumnCurrent},
		{"Vg (V)", ColumnGateVoltage},
		{"VDS (V)", ColumnDrainVoltage},
		{"vsd (V)", ColumnDrainVoltage},
		{"VL (V)", ColumnLaserVoltage},
		{"Plate T (degC)", "Plate T (degC)"},
		{"  humidity ", "humidity"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumn(tt.header))
		})
	}
}

func TestLooksLikeColumnHeader(t *testing.T) {
	assert.True(t, looksLikeColumnHeader("t (s),I (A)"))
	assert.True(t, looksLikeColumnHeader("Vg (V),I (A),VL (V)"))
	assert.False(t, looksLikeColumnHeader("t (s)"))
	assert.False(t, looksLikeColumnHeader("0.1,2.5e-9"))
	assert.False(t, looksLikeColumnHeader("free text without commas"))
}

func TestReadDataBlock(t *testing.T) {
	t.Run("data marker", func(t *testing.T) {
		path := writeFixture(t, "It2024-05-12_1.csv", timeSeriesWithLaser)

		block, err := ReadDataBlock(path)
		require.NoError(t, err)
		assert.Equal(t, []string{ColumnTime, ColumnCurrent, ColumnLaserVoltage}, block.Columns)
		assert.Equal(t, 3, block.Len())

		current, ok := block.Column(ColumnCurrent)
		require.True(t, ok)
		assert.InDelta(t, 1.3e-8, current[1], 1e-20)

		_, ok = block.Column(ColumnGateVoltage)
		assert.False(t, ok)
	})

	t.Run("column header heuristic without marker", func(t *testing.T) {
		content := "Vg (V),I (A)\n-1.0,1e-9\n0.0,2e-9\n"
		path := writeFixture(t, "IVg2024-05-12_1.csv", content)

		block, err := ReadDataBlock(path)
		require.NoError(t, err)
		vg, ok := block.Column(ColumnGateVoltage)
		require.True(t, ok)
		assert.Equal(t, []float64{-1.0, 0.0}, vg)
	})

	t.Run("unrecognized columns pass through", func(t *testing.T) {
		content := "#Procedure: <class 'laser_setup.procedures.Tt'>\n#Parameters:\n#Data:\nt (s),Plate T (degC)\n0.0,24.5\n1.0,24.6\n"
		path := writeFixture(t, "Tt2024-05-12_1.csv", content)

		block, err := ReadDataBlock(path)
		require.NoError(t, err)
		temps, ok := block.Column("Plate T (degC)")
		require.True(t, ok)
		assert.Len(t, temps, 2)
	})

	t.Run("no data section", func(t *testing.T) {
		path := writeFixture(t, "It2024-05-12_1.csv", "#Procedure: <class 'laser_setup.procedures.It'>\n#Parameters:\n")
		_, err := ReadDataBlock(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data section")
	})

	t.Run("malformed value", func(t *testing.T) {
		path := writeFixture(t, "It2024-05-12_1.csv", "#Data:\nt (s),I (A)\n0.0,not-a-number\n")
		_, err := ReadDataBlock(path)
		require.Error(t, err)
	})
}
