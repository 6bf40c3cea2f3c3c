package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/record"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func drain(t *testing.T, it RecordIterator) []record.Record {
	t.Helper()

	var records []record.Record
	for it.Next() {
		records = append(records, *it.Record())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())

	return records
}

func TestPipeline_Parse_SkipsNonEntriesButCountsLines(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	content := "2024-01-01 10:00:00,000 alpha\n" +
		"\n" +
		"stack frame without timestamp\n" +
		"2024-01-01 10:00:01,000 beta\n"
	path := writeFile(t, tmpDir, "app.log", content)

	pl := NewPipeline(nil)
	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)

	records := drain(t, it)
	require.Len(t, records, 2)

	assert.Equal(t, "alpha", records[0].Message)
	assert.Equal(t, 1, records[0].LineNumber)
	assert.Equal(t, path, records[0].SourceFile)

	// Skipped lines still advance the counter.
	assert.Equal(t, "beta", records[1].Message)
	assert.Equal(t, 4, records[1].LineNumber)
}

func TestPipeline_Parse_InvalidArguments(t *testing.T) {
	pl := NewPipeline(nil)

	_, err := pl.Parse(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = pl.Parse(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = pl.Parse(context.Background(), "/nonexistent/app.log")
	assert.True(t, errors.Is(err, ErrNotFound))

	tmpDir, mkErr := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, mkErr)
	defer os.RemoveAll(tmpDir)

	_, err = pl.Parse(context.Background(), tmpDir)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestPipeline_Parse_RecyclesThroughPool(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, fmt.Sprintf("2024-01-01 10:00:0%d,000 entry %d", i, i))
	}
	path := writeFile(t, tmpDir, "app.log", strings.Join(lines, "\n")+"\n")

	recordPool := pool.NewRecordPool(&pool.Config{Capacity: pool.MinCapacity})
	defer recordPool.Close()

	pl := NewPipeline(&Config{Pool: recordPool})

	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)
	for it.Next() {
		recordPool.Return(it.Record())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())

	created := recordPool.Statistics().TotalInstancesCreated
	assert.Greater(t, created, int64(0))

	// A second pass reuses the recycled records.
	it, err = pl.Parse(context.Background(), path)
	require.NoError(t, err)
	for it.Next() {
		recordPool.Return(it.Record())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())

	assert.Equal(t, created, recordPool.Statistics().TotalInstancesCreated)
}

func TestPipeline_Parse_Cancellation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "2024-01-01 10:00:00,%03d entry %d\n", i%1000, i)
	}
	path := writeFile(t, tmpDir, "app.log", sb.String())

	ctx, cancel := context.WithCancel(context.Background())

	pl := NewPipeline(nil)
	it, err := pl.Parse(ctx, path)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	require.True(t, it.Next())

	cancel()

	assert.False(t, it.Next())
	assert.True(t, errors.Is(it.Err(), ErrCancelled))

	// The sequence stays stopped after the cancellation point.
	assert.False(t, it.Next())
	assert.True(t, pl.Progress().Done)
}

func TestPipeline_Parse_IOFailurePropagates(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	content := "2024-01-01 10:00:00,000 fine\n" + strings.Repeat("y", 2*1024*1024)
	path := writeFile(t, tmpDir, "app.log", content)

	pl := NewPipeline(nil)
	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.False(t, it.Next())
	assert.True(t, errors.Is(it.Err(), ErrIO))
}

func TestPipeline_Parse_GzipSource(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "app.log.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("2024-01-01 10:00:00,000 compressed entry\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	pl := NewPipeline(nil)
	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)

	records := drain(t, it)
	require.Len(t, records, 1)
	assert.Equal(t, "compressed entry", records[0].Message)
}

func TestPipeline_ParseFiles_TagsSources(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	first := writeFile(t, tmpDir, "a.log", "2024-01-01 10:00:00,000 from a\n")
	second := writeFile(t, tmpDir, "b.log", "2024-01-01 10:00:01,000 from b\n")

	pl := NewPipeline(nil)
	it, err := pl.ParseFiles(context.Background(), []string{first, second})
	require.NoError(t, err)

	records := drain(t, it)
	require.Len(t, records, 2)

	assert.Equal(t, first, records[0].SourceFile)
	assert.Equal(t, second, records[1].SourceFile)

	// Numbering restarts per file.
	assert.Equal(t, 1, records[0].LineNumber)
	assert.Equal(t, 1, records[1].LineNumber)
}

func TestPipeline_ParseFiles_Validation(t *testing.T) {
	pl := NewPipeline(nil)

	_, err := pl.ParseFiles(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = pl.ParseFiles(context.Background(), []string{""})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = pl.ParseFiles(context.Background(), []string{"/nonexistent/app.log"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPipeline_ParseDirectory_MatchingFilesOnly(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	writeFile(t, tmpDir, "a.log", "2024-01-01 10:00:00,000 a1\n2024-01-01 10:00:01,000 a2\n")
	writeFile(t, tmpDir, filepath.Join("sub", "c.log"), "2024-01-01 10:00:02,000 c1\n")
	writeFile(t, tmpDir, "ignored.txt", "2024-01-01 10:00:03,000 never\n")

	pl := NewPipeline(nil)
	it, err := pl.ParseDirectory(context.Background(), tmpDir, "")
	require.NoError(t, err)

	records := drain(t, it)
	require.Len(t, records, 3)

	var messages []string
	for _, rec := range records {
		messages = append(messages, rec.Message)
	}
	assert.Equal(t, []string{"a1", "a2", "c1"}, messages)
}

func TestPipeline_ParseDirectory_Empty(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	pl := NewPipeline(nil)
	it, err := pl.ParseDirectory(context.Background(), tmpDir, "")
	require.NoError(t, err)

	records := drain(t, it)
	assert.Empty(t, records)
}

func TestPipeline_Progress(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	content := "2024-01-01 10:00:00,000 one\nnoise\n2024-01-01 10:00:01,000 two\n"
	path := writeFile(t, tmpDir, "app.log", content)

	pl := NewPipeline(&Config{PrescanTotals: true})
	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)

	started := pl.Progress()
	assert.Equal(t, int64(3), started.TotalLines)
	assert.False(t, started.Done)

	records := drain(t, it)
	require.Len(t, records, 2)

	final := pl.Progress()
	assert.Equal(t, int64(3), final.LinesRead)
	assert.Equal(t, int64(2), final.RecordsEmitted)
	assert.Equal(t, float64(100), final.Percent)
	assert.True(t, final.Done)
	assert.Equal(t, path, final.Path)
	assert.False(t, final.UpdatedAt.IsZero())
}

func TestPipeline_Progress_ReadFromOtherGoroutine(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	var sb strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "2024-01-01 10:00:00,000 entry %d\n", i)
	}
	path := writeFile(t, tmpDir, "app.log", sb.String())

	pl := NewPipeline(nil)
	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				snapshot := pl.Progress()
				assert.LessOrEqual(t, snapshot.RecordsEmitted, snapshot.LinesRead)
			}
		}
	}()

	records := drain(t, it)
	close(stop)
	wg.Wait()

	require.Len(t, records, 500)
	assert.Equal(t, int64(500), pl.Progress().LinesRead)
}

func TestPipeline_IteratorCloseIsIdempotent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pipeline_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	path := writeFile(t, tmpDir, "app.log", "2024-01-01 10:00:00,000 one\n")

	pl := NewPipeline(nil)
	it, err := pl.Parse(context.Background(), path)
	require.NoError(t, err)

	require.True(t, it.Next())
	require.NoError(t, it.Close())
	require.NoError(t, it.Close())

	assert.False(t, it.Next())
	assert.True(t, pl.Progress().Done)
}
