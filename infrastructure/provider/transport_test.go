package provider

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, client *http.Client, url, body string) string {
	t.Helper()
	resp, err := client.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestCachingTransportCachesSuccessfulResponses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	assert.Equal(t, "payload", postJSON(t, client, srv.URL, `{"q":1}`))
	assert.Equal(t, "payload", postJSON(t, client, srv.URL, `{"q":1}`))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachingTransportKeysOnBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	assert.Equal(t, `{"q":1}`, postJSON(t, client, srv.URL, `{"q":1}`))
	assert.Equal(t, `{"q":2}`, postJSON(t, client, srv.URL, `{"q":2}`))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachingTransportSkipsErrorResponses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	for i := 0; i < 2; i++ {
		resp, err := client.Post(srv.URL, "application/json", bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, int32(2), calls.Load())
}
