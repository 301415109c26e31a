package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cvmatch/internal/errors"
	"cvmatch/internal/types"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	cv := writeTemp(t, dir, "cv.txt", "cv body")
	job := writeTemp(t, dir, "job.md", "job body")

	contents, err := NewFileProcessor(nil, 0).ReadFiles(context.Background(), cv, job)
	if err != nil {
		t.Fatalf("ReadFiles failed: %v", err)
	}
	if len(contents) != 2 || contents[0] != "cv body" || contents[1] != "job body" {
		t.Fatalf("unexpected contents %q", contents)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	big := writeTemp(t, dir, "big.txt", strings.Repeat("x", 100))

	fp := NewFileProcessor(nil, 10)
	_, err := fp.ReadFile(filepath.Join(dir, "missing.txt"))
	if !errors.IsType(err, errors.ErrorTypeIO) {
		t.Errorf("missing file should be an io error, got %v", err)
	}
	if appErr, ok := errors.As(err); !ok || appErr.Code != errors.ErrCodeFileNotFound {
		t.Errorf("expected %s, got %v", errors.ErrCodeFileNotFound, err)
	}

	_, err = fp.ReadFile(big)
	if !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Errorf("oversized file should be a validation error, got %v", err)
	}

	_, err = fp.ReadFiles(context.Background(), big, filepath.Join(dir, "missing.txt"))
	if err == nil {
		t.Error("ReadFiles should fail when any file fails")
	}
}

func TestHandleOutput(t *testing.T) {
	report := types.SkillGapReport{SkillGaps: []types.SkillGapEntry{}}

	var buf bytes.Buffer
	if err := NewOutputHandler(nil).HandleOutput(report, CommandConfig{OutputFormat: "text", Stdout: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No skill gaps found.") {
		t.Errorf("unexpected stdout %q", buf.String())
	}

	target := filepath.Join(t.TempDir(), "out", "report.json")
	if err := NewOutputHandler(nil).HandleOutput(report, CommandConfig{OutputFormat: "json", OutputFile: target}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"totalGaps": 0`) {
		t.Errorf("unexpected file content %s", data)
	}

	err = NewOutputHandler(nil).HandleOutput(report, CommandConfig{OutputFormat: "xml", Stdout: &buf})
	if !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Errorf("unknown format should be a validation error, got %v", err)
	}
}

type pair struct{ cv, job string }

func TestRunAICommandRetriesUpstreamFailures(t *testing.T) {
	RetryBaseDelay = time.Millisecond
	dir := t.TempDir()
	files := []string{writeTemp(t, dir, "cv.txt", "cv"), writeTemp(t, dir, "job.txt", "job")}

	calls := 0
	operation := func(ctx context.Context, in pair) (map[string]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.NewUpstreamError(errors.ErrCodeUpstreamFailed, "AI request failed", nil)
		}
		return map[string]string{"cv": in.cv, "job": in.job}, nil
	}
	createInput := func(contents []string) (pair, error) {
		return pair{cv: contents[0], job: contents[1]}, nil
	}

	var buf bytes.Buffer
	cfg := CommandConfig{OutputFormat: "json", Retries: 2, Stdout: &buf}
	if err := RunAICommand(context.Background(), nil, "analyze", cfg, files, createInput, operation, nil); err != nil {
		t.Fatalf("RunAICommand failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if !strings.Contains(buf.String(), `"job": "job"`) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRunAICommandStopsOnQuotaError(t *testing.T) {
	RetryBaseDelay = time.Millisecond
	dir := t.TempDir()
	files := []string{writeTemp(t, dir, "cv.txt", "cv"), writeTemp(t, dir, "job.txt", "job")}

	calls := 0
	quotaErr := errors.NewRateLimitError(errors.ErrCodeDailyLimitExceeded, "limit", nil)
	operation := func(ctx context.Context, in []string) (string, error) {
		calls++
		return "", quotaErr
	}
	createInput := func(contents []string) ([]string, error) { return contents, nil }

	err := RunAICommand(context.Background(), nil, "analyze", CommandConfig{OutputFormat: "json", Retries: 3}, files, createInput, operation, nil)
	if !stderrors.Is(err, quotaErr) {
		t.Fatalf("expected the quota error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("daily limit errors must not be retried, got %d calls", calls)
	}
}
