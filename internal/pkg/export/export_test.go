package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readBack(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestXLSXSinkWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewXLSXSink(&buf, "Roster")
	require.NoError(t, err)

	require.NoError(t, sink.WriteHeader([]string{"RollNumber", "Name", "OverallAverage"}))
	require.NoError(t, sink.WriteRow([]string{"R1", "Asha", "8.25"}))
	require.NoError(t, sink.WriteRow([]string{"R2", "Ravi", "N/A"}))
	assert.Equal(t, 2, sink.Rows())
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "closing twice is harmless")

	rows := readBack(t, buf.Bytes(), "Roster")
	assert.Equal(t, [][]string{
		{"RollNumber", "Name", "OverallAverage"},
		{"R1", "Asha", "8.25"},
		{"R2", "Ravi", "N/A"},
	}, rows)
}

func TestXLSXSinkHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewXLSXSink(&buf, "Roster")
	require.NoError(t, err)
	require.NoError(t, sink.WriteHeader([]string{"A", "B"}))
	require.NoError(t, sink.Close())

	assert.Equal(t, [][]string{{"A", "B"}}, readBack(t, buf.Bytes(), "Roster"))
}

func TestXLSXSinkRejectsMisuse(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewXLSXSink(&buf, "Roster")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.WriteHeader([]string{"A"}))
	assert.ErrorIs(t, sink.WriteHeader([]string{"A"}), ErrHeaderWritten)
	assert.Error(t, sink.WriteRow([]string{"1", "2"}))
}

func TestXLSXSinkAbortWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewXLSXSink(&buf, "Roster")
	require.NoError(t, err)

	require.NoError(t, sink.WriteHeader([]string{"A"}))
	require.NoError(t, sink.Abort())
	require.NoError(t, sink.Close())
	assert.Zero(t, buf.Len())
	assert.Error(t, sink.WriteRow([]string{"1"}))
}
