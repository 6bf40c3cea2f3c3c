package query

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/muninn/pkg/pipeline"
	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/record"
)

func newTestEngine(t *testing.T) (*Engine, *pool.RecordPool) {
	t.Helper()

	recordPool := pool.NewRecordPool(&pool.Config{Capacity: pool.MinCapacity})
	t.Cleanup(recordPool.Close)

	pl := pipeline.NewPipeline(&pipeline.Config{Pool: recordPool})

	return NewEngine(pl, recordPool), recordPool
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestEngine_Run_FiltersLevels(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "query_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	content := "2024-01-01 10:00:00,000 service started\n" +
		"2024-01-01 10:00:01,000 error opening socket\n" +
		"2024-01-01 10:00:02,000 warning: disk filling up\n" +
		"2024-01-01 10:00:03,000 error writing snapshot\n"
	path := writeLog(t, tmpDir, "app.log", content)

	engine, _ := newTestEngine(t)
	it, err := engine.Run(context.Background(), path, "", Filter{
		Levels: []record.Level{record.LevelError},
	})
	require.NoError(t, err)
	defer it.Close()

	var messages []string
	for it.Next() {
		messages = append(messages, it.Record().Message)
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []string{"error opening socket", "error writing snapshot"}, messages)
}

func TestEngine_Run_ReturnsDroppedToPool(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "query_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	content := "2024-01-01 10:00:00,000 one\n" +
		"2024-01-01 10:00:01,000 error two\n" +
		"2024-01-01 10:00:02,000 three\n"
	path := writeLog(t, tmpDir, "app.log", content)

	engine, recordPool := newTestEngine(t)
	it, err := engine.Run(context.Background(), path, "", Filter{
		Levels: []record.Level{record.LevelError},
	})
	require.NoError(t, err)

	matched := 0
	for it.Next() {
		matched++
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())

	assert.Equal(t, 1, matched)

	// Both dropped records went back; the first was already recycled
	// into the matching line before the caller saw it.
	stats := recordPool.Statistics()
	assert.Equal(t, int64(2), stats.TotalReturns)
	assert.Equal(t, int64(1), stats.PoolHits)
	assert.Equal(t, 1, recordPool.AvailableCount())
}

func TestEngine_Run_InvalidFilter(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Run(context.Background(), "app.log", "", Filter{
		Levels: []record.Level{record.Level("LOUD")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run query")
}

func TestEngine_Run_MissingSource(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Run(context.Background(), "/nonexistent/app.log", "", Filter{})
	assert.True(t, errors.Is(err, pipeline.ErrNotFound))
}

func TestEngine_Run_Directory(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "query_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	writeLog(t, tmpDir, "a.log", "2024-01-01 10:00:00,000 alpha timeout\n")
	writeLog(t, tmpDir, "b.log", "2024-01-01 10:00:01,000 beta ok\n2024-01-01 10:00:02,000 gamma timeout\n")

	engine, _ := newTestEngine(t)
	it, err := engine.Run(context.Background(), tmpDir, "", Filter{Contains: "timeout"})
	require.NoError(t, err)
	defer it.Close()

	var messages []string
	for it.Next() {
		messages = append(messages, it.Record().Message)
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []string{"alpha timeout", "gamma timeout"}, messages)
}

func TestEngine_Run_NilPool(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "query_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	path := writeLog(t, tmpDir, "app.log",
		"2024-01-01 10:00:00,000 kept error\n2024-01-01 10:00:01,000 dropped\n")

	engine := NewEngine(pipeline.NewPipeline(nil), nil)
	it, err := engine.Run(context.Background(), path, "", Filter{
		Levels: []record.Level{record.LevelError},
	})
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, "kept error", it.Record().Message)
	assert.False(t, it.Next())
	require.NoError(t, it.Err())
}
