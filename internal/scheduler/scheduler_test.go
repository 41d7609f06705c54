package scheduler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/fragget/internal/config"
	"github.com/tanq16/fragget/internal/utils"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.ShowProgress = false
	return cfg
}

func TestPrepareJob(t *testing.T) {
	t.Run("bare names go to the output directory", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.RateLimit = "1M"
		job, err := PrepareJob("https://example.com/files/archive.tar.gz", "", cfg)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cfg.OutputDir, "archive.tar.gz"), job.OutputPath)
		assert.Equal(t, int64(1<<20), job.RateLimit)
		assert.Equal(t, int64(-1), job.TotalSize)
		assert.Equal(t, cfg.Fragments, job.Fragments)
		_, err = uuid.Parse(job.ID)
		assert.NoError(t, err)
	})

	t.Run("explicit paths are kept", func(t *testing.T) {
		cfg := testConfig(t)
		target := filepath.Join(t.TempDir(), "nested", "out.bin")
		job, err := PrepareJob("http://example.com/x", target, cfg)
		require.NoError(t, err)
		assert.Equal(t, target, job.OutputPath)
		assert.DirExists(t, filepath.Dir(target))
	})

	t.Run("existing files are not overwritten", func(t *testing.T) {
		cfg := testConfig(t)
		existing := filepath.Join(cfg.OutputDir, "data.bin")
		require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))
		job, err := PrepareJob("http://example.com/data.bin", "", cfg)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cfg.OutputDir, "data-(1).bin"), job.OutputPath)
	})

	t.Run("bad input", func(t *testing.T) {
		cfg := testConfig(t)
		_, err := PrepareJob("ftp://example.com/file", "", cfg)
		assert.ErrorIs(t, err, utils.ErrUnsupportedScheme)
		cfg.RateLimit = "quick"
		_, err = PrepareJob("http://example.com/file", "", cfg)
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	data := bytes.Repeat([]byte("fragget-"), 32*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "payload.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	job, err := PrepareJob(srv.URL+"/payload.bin", "", cfg)
	require.NoError(t, err)

	summary, err := Run(context.Background(), job, Options{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, job.ID, summary.JobID)
	assert.Equal(t, int64(len(data)), summary.Bytes)
	assert.Greater(t, summary.AverageSpeed, 0.0)

	got, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRunFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.RetryAttempts = 1
	job, err := PrepareJob(srv.URL+"/missing.bin", "", cfg)
	require.NoError(t, err)

	_, err = Run(context.Background(), job, Options{Quiet: true})
	assert.Error(t, err)
	assert.NoFileExists(t, job.OutputPath)
}

func TestRunRejectsUnknownStyle(t *testing.T) {
	cfg := testConfig(t)
	job, err := PrepareJob("http://127.0.0.1:1/file", "", cfg)
	require.NoError(t, err)
	_, err = Run(context.Background(), job, Options{ShowProgress: true, ProgressStyle: "fancy", Quiet: true})
	assert.Error(t, err)
}
