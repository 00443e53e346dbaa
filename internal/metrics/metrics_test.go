package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartsEmpty(t *testing.T) {
	r := NewRegistry(false)

	assert.Equal(t, 0.0, r.AverageResponseTimeMillis())
	assert.Equal(t, 0.0, r.ImageCount())
	assert.Equal(t, 0.0, r.TotalViolations())
	assert.Equal(t, uint64(0), r.ViolationSamples())
}

func TestAverageResponseTime(t *testing.T) {
	r := NewRegistry(false)

	r.ObserveResponseTime(100 * time.Millisecond)
	r.ObserveResponseTime(300 * time.Millisecond)

	assert.InDelta(t, 200.0, r.AverageResponseTimeMillis(), 0.0001)
}

func TestImageCountAccumulates(t *testing.T) {
	r := NewRegistry(false)

	r.AddImages(2)
	r.AddImages(0)
	r.AddImages(-4)
	r.AddImages(3)

	assert.Equal(t, 5.0, r.ImageCount())
}

func TestViolationsAreRecordedPerScan(t *testing.T) {
	r := NewRegistry(false)

	r.RecordViolations(3)
	r.RecordViolations(0)
	r.RecordViolations(1)

	assert.Equal(t, 4.0, r.TotalViolations())
	assert.Equal(t, uint64(3), r.ViolationSamples())
}

func TestConcurrentRecording(t *testing.T) {
	r := NewRegistry(false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddImages(2)
			r.RecordViolations(1)
			r.ObserveResponseTime(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100.0, r.ImageCount())
	assert.Equal(t, 50.0, r.TotalViolations())
	assert.InDelta(t, 1.0, r.AverageResponseTimeMillis(), 0.0001)
}

func TestHandlerExposesCollectors(t *testing.T) {
	r := NewRegistry(true)
	r.AddImages(1)
	r.RecordViolations(1)
	r.ObserveResponseTime(time.Second)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	for _, name := range []string{"response_time_seconds_count 1", "count_image_total 1", "total_violation_sum 1", "go_goroutines"} {
		assert.True(t, strings.Contains(text, name), "missing %q", name)
	}
}

func TestGathererListsMetricFamilies(t *testing.T) {
	r := NewRegistry(false)

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["response_time_seconds"])
	assert.True(t, names["count_image_total"])
	assert.True(t, names["total_violation"])
}
