package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, requestTimeout time.Duration) *Client {
	t.Helper()
	return NewClient(2*time.Second, requestTimeout, zap.NewNop())
}

func TestGetReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	body, err := newTestClient(t, 5*time.Second).Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestGetTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	start := time.Now()
	_, err := newTestClient(t, 50*time.Millisecond).Get(context.Background(), server.URL, nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, model.KindUpstreamTimeout, model.KindOf(err))
	assert.Less(t, elapsed, 400*time.Millisecond, "the call must not wait out the slow upstream")
}

func TestGetContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, 5*time.Second).Get(ctx, server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, model.KindUpstreamTimeout, model.KindOf(err))
}

func TestGetNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, 5*time.Second).Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, model.KindUpstreamUnavailable, model.KindOf(err))
}

func TestGetWithStatusLeavesStatusToCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(456)
		w.Write([]byte("blocked"))
	}))
	defer server.Close()

	status, body, err := newTestClient(t, 5*time.Second).GetWithStatus(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 456, status)
	assert.Equal(t, "blocked", string(body))
}

func TestGetConnectionRefused(t *testing.T) {
	_, err := newTestClient(t, time.Second).Get(context.Background(), "http://127.0.0.1:1", nil)
	require.Error(t, err)
	assert.Equal(t, model.KindUpstreamUnavailable, model.KindOf(err))
}

func TestDecodeGBK(t *testing.T) {
	// 中文 encoded as GBK.
	gbk := []byte{0xD6, 0xD0, 0xCE, 0xC4}

	decoded, err := DecodeGBK(gbk)
	require.NoError(t, err)
	assert.Equal(t, "中文", decoded)
}
