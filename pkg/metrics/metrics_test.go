package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsAvailability(t *testing.T) {
	RecordOperation(OpGather, "success", 100*time.Millisecond)
	RecordDeltaApplied(DeltaAddPort, "success")
	RecordDeltaComputed(DeltaAddSubsystem)
	SetGatheredCounts(3, 2)

	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to get metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	content := string(body)

	expectedMetrics := []string{
		"nvmetctl_operations_total",
		"nvmetctl_operation_duration_seconds",
		"nvmetctl_deltas_applied_total",
		"nvmetctl_deltas_computed_total",
		"nvmetctl_ports",
		"nvmetctl_subsystems",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(content, metric) {
			t.Errorf("expected metric %s not found in metrics output", metric)
		}
	}
}

func TestRecordOperation(t *testing.T) {
	RecordOperation(OpGather, "success", 100*time.Millisecond)
	RecordOperation(OpApply, "error", 50*time.Millisecond)
}

func TestRecordDeltaApplied(t *testing.T) {
	RecordDeltaApplied(DeltaAddPort, "success")
	RecordDeltaApplied(DeltaRemoveSubsystem, "error")
}

func TestRecordDeltaComputed(t *testing.T) {
	RecordDeltaComputed(DeltaUpdatePort)
	RecordDeltaComputed(DeltaAddSubsystem)
}

func TestSetGatheredCounts(t *testing.T) {
	SetGatheredCounts(5, 2)
	SetGatheredCounts(0, 0)
}

func TestOperationTimer(t *testing.T) {
	timer := NewOperationTimer(OpGather)
	time.Sleep(10 * time.Millisecond)
	timer.ObserveSuccess()

	timer2 := NewOperationTimer(OpApply)
	time.Sleep(5 * time.Millisecond)
	timer2.ObserveError()
}

func TestMetricsConstants(t *testing.T) {
	if OpGather == "" || OpDiff == "" || OpApply == "" {
		t.Error("core operation constants should not be empty")
	}
	if DeltaAddPort == "" || DeltaRemoveSubsystem == "" {
		t.Error("delta kind constants should not be empty")
	}
}
