package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/export"
)

// recordingSink keeps rows in memory and can fail on a given row.
type recordingSink struct {
	header  []string
	rows    [][]string
	failAt  int
	closed  bool
	aborted bool
}

func (s *recordingSink) WriteHeader(columns []string) error {
	s.header = columns
	return nil
}

func (s *recordingSink) WriteRow(values []string) error {
	if s.failAt > 0 && len(s.rows)+1 == s.failAt {
		return errors.New("disk full")
	}
	s.rows = append(s.rows, values)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) Abort() error {
	s.aborted = true
	return nil
}

func TestExportService_RowsInRosterOrder(t *testing.T) {
	opts := DefaultRosterOptions()
	opts.ExportBatchSize = 2
	env := newTestEnv(t, opts)
	ctx := context.Background()
	env.register(t, "R002", "Bryan")
	env.register(t, "R001", "Anna")
	env.register(t, "R003", "Carl")
	_, err := env.histories.Submit(ctx, "R001", []models.SemesterGrade{{Semester: "S1", GPA: 8}, {Semester: "S2", GPA: 9}}, nil)
	require.NoError(t, err)

	sink := &recordingSink{}
	n, err := env.exports.ExportRoster(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, sink.closed)
	assert.False(t, sink.aborted)

	assert.Equal(t, RosterExportHeader, sink.header)
	require.Len(t, sink.rows, 3)
	for _, row := range sink.rows {
		assert.Len(t, row, len(RosterExportHeader))
	}
	assert.Equal(t, "R001", sink.rows[0][0])
	assert.Equal(t, "Anna", sink.rows[0][1])
	assert.Equal(t, "8.50", sink.rows[0][14])
	assert.Equal(t, "R002", sink.rows[1][0])
	assert.Equal(t, models.UnavailableAverage, sink.rows[1][14])
	assert.Equal(t, "R003", sink.rows[2][0])
}

func TestExportService_FailureAbortsSink(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	env.registerMany(t, 3)

	sink := &recordingSink{failAt: 2}
	_, err := env.exports.ExportRoster(context.Background(), sink)
	require.Error(t, err)
	assert.True(t, sink.aborted)
	assert.False(t, sink.closed)
}

func TestExportService_XLSXReadBack(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	env.registerMany(t, 2)
	_, err := env.histories.Submit(ctx, "R002", []models.SemesterGrade{{Semester: "S1", GPA: 6.5}}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	sink, err := export.NewXLSXSink(&buf, "Roster")
	require.NoError(t, err)
	_, err = env.exports.ExportRoster(ctx, sink)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Roster")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, RosterExportHeader, rows[0])
	assert.Equal(t, "R001", rows[1][0])
	assert.Equal(t, models.UnavailableAverage, rows[1][14])
	assert.Equal(t, "6.50", rows[2][14])
}
