package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		Rate:       100,
		Burst:      100,
		RetryBase:  time.Millisecond,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	data, err := f.Fetch(context.Background(), srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/forbidden.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
}

func TestFetch_NotAnImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>not a photo</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want an image")
}

func TestFetch_OctetStreamAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0xff, 0xd8, 0xff})
	}))
	defer srv.Close()

	f := newTestFetcher()
	data, err := f.Fetch(context.Background(), srv.URL+"/photo.bin")
	require.NoError(t, err)
	assert.Len(t, data, 3)
}

func TestFetch_BodyOverCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		MaxBytes:   16,
		RetryBase:  time.Millisecond,
	})
	_, err := f.Fetch(context.Background(), srv.URL+"/huge.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte cap")
}

func TestFetch_RetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	data, err := f.Fetch(context.Background(), srv.URL+"/flaky.jpg")
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(data))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetch_RetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
	})
	_, err := f.Fetch(context.Background(), srv.URL+"/down.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestFetch_429ReducesRate(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	data, err := f.Fetch(context.Background(), srv.URL+"/busy.jpg")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), attempts.Load())

	// Two halvings then one 20% bump: 100 -> 50 -> 25 -> 30.
	u, _ := url.Parse(srv.URL)
	assert.Less(t, float64(f.limiterFor(u.Host).Limit()), 100.0)
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, srv.URL+"/photo.jpg")
	require.Error(t, err)
}

func TestLimiterFor_ReusesPerHost(t *testing.T) {
	f := newTestFetcher()
	a := f.limiterFor("photos.example.org")
	b := f.limiterFor("photos.example.org")
	c := f.limiterFor("cdn.example.org")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, "ocean-sentinel/1.0", f.opts.UserAgent)
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
	assert.Equal(t, 3, f.opts.MaxRetries)
	assert.Equal(t, int64(DefaultMaxBytes), f.opts.MaxBytes)
	assert.Equal(t, time.Second, f.opts.RetryBase)
}

func TestHTTPTransport_PoolingConfig(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	transport, ok := f.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 10, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 20, transport.MaxConnsPerHost)
}

func TestAcceptableImageType(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", true},
		{"image/jpeg", true},
		{"image/png", true},
		{"IMAGE/JPEG", true},
		{"image/webp; charset=binary", true},
		{"application/octet-stream", true},
		{"text/html; charset=utf-8", false},
		{"application/json", false},
		{"not a media type;;;", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptableImageType(tt.header))
		})
	}
}

// --- AdaptiveLimiter Tests ---

func TestAdaptiveLimiter_OnSuccess_IncreasesRate(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 8)

	lim.OnSuccess()
	assert.InDelta(t, 9.6, float64(lim.Limit()), 0.1) // 8 * 1.2

	lim.OnSuccess()
	assert.InDelta(t, 11.52, float64(lim.Limit()), 0.1)
}

func TestAdaptiveLimiter_OnRateLimit_DecreasesRate(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 8)

	lim.OnRateLimit()
	assert.InDelta(t, 4.0, float64(lim.Limit()), 0.1)

	lim.OnRateLimit()
	assert.InDelta(t, 2.0, float64(lim.Limit()), 0.1)
}

func TestAdaptiveLimiter_OnSuccess_CapsAt2x(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 8)

	for range 20 {
		lim.OnSuccess()
	}

	assert.InDelta(t, 16.0, float64(lim.Limit()), 0.1)
}

func TestAdaptiveLimiter_OnRateLimit_FloorAtQuarter(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 8)

	for range 10 {
		lim.OnRateLimit()
	}

	assert.InDelta(t, 2.0, float64(lim.Limit()), 0.1)
}

func TestAdaptiveLimiter_Wait(t *testing.T) {
	lim := NewAdaptiveLimiter(1000, 10)
	err := lim.Wait(context.Background())
	assert.NoError(t, err)
}

func TestAdaptiveLimiter_Wait_ContextCancelled(t *testing.T) {
	lim := NewAdaptiveLimiter(0.001, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := lim.Wait(ctx)
	assert.Error(t, err)
}
