package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestRecordDispatch(t *testing.T) {
	before := value(t, webhookDispatchesTotal.WithLabelValues("video_added", ResultSuccess))
	RecordDispatch("video_added", ResultSuccess)
	after := value(t, webhookDispatchesTotal.WithLabelValues("video_added", ResultSuccess))

	if after-before != 1 {
		t.Errorf("dispatch counter delta = %v, want 1", after-before)
	}
}

func TestUpdateVideoCount(t *testing.T) {
	UpdateVideoCount(42)
	if got := value(t, videosTotal); got != 42 {
		t.Errorf("videos_total = %v, want 42", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{303, "3xx"},
		{404, "4xx"},
		{422, "4xx"},
		{500, "5xx"},
		{502, "5xx"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.status); got != tt.want {
			t.Errorf("statusClass(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
