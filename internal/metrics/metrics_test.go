package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/clock"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/toast"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestCollector_RecordsQueueEvents(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	c := New(Config{Now: func() time.Time { return now }})

	ref := toast.Ref{
		ID:        "a",
		Timestamp: now.Add(-4 * time.Second),
		Content:   model.Content{Title: "x", Level: model.LevelWarning},
	}
	c.Added(ref)
	c.Added(ref)
	c.Closed(ref, toast.CloseReasonSwiped)
	c.Closed(ref, toast.CloseReasonExpired)
	c.Cleared(3)
	c.Gesture(true)
	c.Gesture(false)
	c.Gesture(false)
	c.Visible(7)

	assert.Equal(t, 2.0, counterValue(t, c.added.WithLabelValues("warning")))
	assert.Equal(t, 1.0, counterValue(t, c.closed.WithLabelValues("swiped")))
	assert.Equal(t, 1.0, counterValue(t, c.closed.WithLabelValues("expired")))
	assert.Equal(t, 3.0, counterValue(t, c.cleared))
	assert.Equal(t, 1.0, counterValue(t, c.gestures.WithLabelValues("committed")))
	assert.Equal(t, 2.0, counterValue(t, c.gestures.WithLabelValues("cancelled")))
	assert.Equal(t, 7.0, gaugeValue(t, c.visible))

	var m dto.Metric
	require.NoError(t, c.lifetime.Write(&m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
	assert.InDelta(t, 8.0, m.GetHistogram().GetSampleSum(), 1e-9)
}

func TestCollector_Handler(t *testing.T) {
	c := New(Config{Namespace: "test"})
	c.Visible(2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_toasts_visible 2")
}

func TestCollector_Serve(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c := New(Config{Namespace: "serve"})
	c.Cleared(3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx, addr, nil) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, "serve_toasts_cleared_total 3")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestCollector_AsQueueObserver(t *testing.T) {
	c := New(Config{})
	q := toast.New(toast.Options{Duration: toast.NoAutoDismiss, Frames: clock.ImmediateFrames{}, Observer: c})
	defer q.Destroy()

	ref := q.Add(model.Content{Title: "hi"}, toast.AddOptions{})
	q.Close(ref.ID)

	assert.Equal(t, 1.0, counterValue(t, c.added.WithLabelValues("info")))
	assert.Equal(t, 1.0, counterValue(t, c.closed.WithLabelValues("closed")))
	assert.Equal(t, 0.0, gaugeValue(t, c.visible))
}
