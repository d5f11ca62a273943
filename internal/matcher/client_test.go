package matcher

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spigell/job-matcher/internal/params"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(zap.NewNop(), server.URL+"/")
}

func testSnapshot() params.Snapshot {
	return params.Snapshot{
		Resume: &params.Resume{
			Name:      "cv.txt",
			MediaType: params.MediaTypeText,
			Data:      []byte("Go developer with five years of experience"),
		},
		Threshold:      0.35,
		EntryLevelOnly: true,
	}
}

func TestSubmitMatchBuildsMultipartRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, matchPath, r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "0.35", r.FormValue(thresholdField))
		assert.Equal(t, "true", r.FormValue(entryLevelField))

		file, header, err := r.FormFile(resumeField)
		require.NoError(t, err)
		defer file.Close()

		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "Go developer with five years of experience", string(body))
		assert.Equal(t, "cv.txt", header.Filename)
		assert.Equal(t, params.MediaTypeText, header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	})

	results, err := client.SubmitMatch(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 0, results.Len())
	assert.NotNil(t, results.Items)
}

func TestSubmitMatchClampsThresholdBeforeSending(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "0.9", r.FormValue(thresholdField))
		assert.Equal(t, "false", r.FormValue(entryLevelField))
		_, _ = io.WriteString(w, `[]`)
	})

	snap := testSnapshot()
	snap.Threshold = 3
	snap.EntryLevelOnly = false

	_, err := client.SubmitMatch(context.Background(), snap)
	require.NoError(t, err)
}

func TestSubmitMatchPreservesOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"title": "Junior Go Developer", "company": "Acme", "score": 0.35, "link": "https://jobs.example/2"},
			{"title": "Go Developer", "company": "Globex", "score": 0.81, "link": "https://jobs.example/1", "location": "Remote"},
			{"title": "Intern", "company": "Initech", "score": 0.2, "link": "https://jobs.example/3"}
		]`)
	})

	results, err := client.SubmitMatch(context.Background(), testSnapshot())
	require.NoError(t, err)

	require.Equal(t, 3, results.Len())
	assert.Equal(t, []string{"Junior Go Developer", "Go Developer", "Intern"}, results.Titles())
	assert.Equal(t, &Result{Title: "Go Developer", Company: "Globex", Score: 0.81, Link: "https://jobs.example/1"}, results.Items[1])
}

func TestSubmitMatchRequiresResume(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	})

	_, err := client.SubmitMatch(context.Background(), params.Snapshot{Threshold: params.DefaultThreshold})
	require.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestSubmitMatchDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "object instead of array", body: `{"title": "Go Developer"}`},
		{name: "null body", body: `null`},
		{name: "null item", body: `[null]`},
		{name: "scalar item", body: `[1]`},
		{name: "missing key", body: `[{"title": "Go Developer", "company": "Acme", "score": 0.5}]`},
		{name: "null score", body: `[{"title": "Go Developer", "company": "Acme", "score": null, "link": "https://jobs.example/1"}]`},
		{name: "null title", body: `[{"title": null, "company": "Acme", "score": 0.5, "link": "https://jobs.example/1"}]`},
		{name: "score as text", body: `[{"title": "Go Developer", "company": "Acme", "score": "high", "link": "https://jobs.example/1"}]`},
		{name: "truncated", body: `[{"title": "Go Dev`},
		{name: "html", body: `<html>Service is down</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			results, err := client.SubmitMatch(context.Background(), testSnapshot())
			assert.Nil(t, results)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, OpSubmitMatch, decodeErr.Op)
		})
	}
}

func TestRemoteErrorCarriesStatusAndBody(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "scorer unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := New(zap.New(core), server.URL)

	_, err := client.SubmitMatch(context.Background(), testSnapshot())

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, OpSubmitMatch, remote.Op)
	assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
	assert.Equal(t, "scorer unavailable\n", remote.Body)

	entries := observed.FilterMessage("remote service returned an error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scorer unavailable", entries[0].ContextMap()["body_preview"])
	assert.Equal(t, matchPath, entries[0].ContextMap()["endpoint"])
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(zap.NewNop(), url)

	_, err := client.TriggerRefresh(context.Background())
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, OpTriggerRefresh, transport.Op)

	_, err = client.ReadJobCount(context.Background())
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, OpReadJobCount, transport.Op)

	_, err = client.SubmitMatch(context.Background(), testSnapshot())
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, OpSubmitMatch, transport.Op)
}

func TestTransportErrorOnTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client := New(zap.NewNop(), server.URL)
	client.HTTPClient.Timeout = 50 * time.Millisecond

	_, err := client.ReadJobCount(context.Background())

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

func TestTransportErrorOnCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"count": 1}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ReadJobCount(ctx)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTriggerRefresh(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, updateJobsPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"new_jobs": 3}`)
	})

	refresh, err := client.TriggerRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, refresh.NewJobs)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTriggerRefreshDecodeError(t *testing.T) {
	for _, body := range []string{`{}`, `{"new_jobs": "three"}`, `not json`} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})

		_, err := client.TriggerRefresh(context.Background())

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr, "body %q", body)
	}
}

func TestReadJobCountIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, jobCountPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"count": 13}`)
	})

	for range 5 {
		count, err := client.ReadJobCount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 13, count)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestReadJobCountDecodeErrors(t *testing.T) {
	for _, body := range []string{`{}`, `{"count": -1}`, `{"count": 1.5}`, `[]`} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})

		_, err := client.ReadJobCount(context.Background())

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr, "body %q", body)
	}
}

func TestGzipResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, contentEncoding, r.Header.Get("Accept-Encoding"))

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, `{"count": 42}`)
		_ = gz.Close()
	})

	count, err := client.ReadJobCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
