package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, batchSize int) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	next := slog.NewTextHandler(io.Discard, nil)
	h, err := NewParquetHandler(next, dir, batchSize)
	require.NoError(t, err)
	return h, dir
}

func parquetFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	return matches
}

func readRecords(t *testing.T, path string) []LogRecord {
	t.Helper()
	rows, err := parquet.ReadFile[LogRecord](path)
	require.NoError(t, err)
	return rows
}

func TestHandlerIgnoresNonErrorLevels(t *testing.T) {
	h, dir := newTestHandler(t, 10)
	logger := slog.New(h)

	logger.Info("routine message")
	logger.Warn("warning message")

	require.NoError(t, h.Flush())
	assert.Empty(t, parquetFiles(t, dir))
}

func TestHandlerFlushWritesBufferedErrors(t *testing.T) {
	h, dir := newTestHandler(t, 10)
	logger := slog.New(h)

	logger.Error("search failed", "group_id", "g1")
	assert.Empty(t, parquetFiles(t, dir), "buffer should not flush before batch size")

	require.NoError(t, h.Flush())
	files := parquetFiles(t, dir)
	require.Len(t, files, 1)

	records := readRecords(t, files[0])
	require.Len(t, records, 1)
	assert.Equal(t, "search failed", records[0].Message)
	assert.Equal(t, "ERROR", records[0].Level)
	assert.NotEmpty(t, records[0].ID)
	assert.Contains(t, records[0].Attributes, "g1")
}

func TestHandlerFlushesAtBatchSize(t *testing.T) {
	h, dir := newTestHandler(t, 3)
	logger := slog.New(h)

	logger.Error("first")
	logger.Error("second")
	assert.Empty(t, parquetFiles(t, dir))

	logger.Error("third")
	files := parquetFiles(t, dir)
	require.Len(t, files, 1)
	assert.Len(t, readRecords(t, files[0]), 3)
}

func TestHandlerCapturesRequestIdentity(t *testing.T) {
	h, dir := newTestHandler(t, 10)
	logger := slog.New(h)

	ctx := context.WithValue(context.Background(), types.ContextKeyUserID, "user-7")
	ctx = context.WithValue(ctx, types.ContextKeySessionID, "sess-9")
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "api")

	logger.ErrorContext(ctx, "channel unavailable")
	require.NoError(t, h.Flush())

	files := parquetFiles(t, dir)
	require.Len(t, files, 1)
	records := readRecords(t, files[0])
	require.Len(t, records, 1)
	assert.Equal(t, "user-7", records[0].UserID)
	assert.Equal(t, "sess-9", records[0].SessionID)
	assert.Equal(t, "api", records[0].RequestSource)
}

func TestNewParquetHandlerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "telemetry")
	next := slog.NewTextHandler(io.Discard, nil)
	_, err := NewParquetHandler(next, dir, 0)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
