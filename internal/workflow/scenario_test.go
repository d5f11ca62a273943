package workflow

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/params"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService emulates the remote matching service with an in-memory corpus size.
type fakeService struct {
	mu       sync.Mutex
	corpus   int
	ingest   int
	calls    []string
	failWith int

	matchForm   map[string]string
	refreshHits atomic.Int32
}

func (s *fakeService) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/update-jobs", func(w http.ResponseWriter, _ *http.Request) {
		s.refreshHits.Add(1)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, "update-jobs")

		if s.failWith != 0 {
			http.Error(w, "crawler is down", s.failWith)
			return
		}

		s.corpus += s.ingest
		_, _ = io.WriteString(w, `{"new_jobs": 3}`)
	})

	mux.HandleFunc("GET /api/job-count", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, "job-count")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"count": `+strconv.Itoa(s.corpus)+`}`)
	})

	mux.HandleFunc("POST /api/match", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, "match")
		s.matchForm = map[string]string{
			"threshold":  r.FormValue("threshold"),
			"entryLevel": r.FormValue("entryLevel"),
		}

		_, _ = io.WriteString(w, `[
			{"title": "Go Developer", "company": "Acme", "score": 0.81, "link": "https://jobs.example/1"},
			{"title": "Support Engineer", "company": "Globex", "score": 0.35, "link": "https://jobs.example/2"}
		]`)
	})

	return mux
}

func (s *fakeService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func (s *fakeService) MatchForm() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.matchForm
}

func newScenario(t *testing.T, service *fakeService, store *params.Store) *Orchestrator {
	t.Helper()

	server := httptest.NewServer(service.handler())
	t.Cleanup(server.Close)

	return New(store, matcher.New(zap.NewNop(), server.URL), zap.NewNop())
}

func TestScenarioRefreshThenMatch(t *testing.T) {
	service := &fakeService{corpus: 10, ingest: 3}

	store := params.New()
	resume, err := params.NewResume("cv.txt", []byte("Go developer, distributed systems"))
	require.NoError(t, err)
	store.SetResume(resume)
	store.SetThreshold(0.2)
	store.SetEntryLevelOnly(false)

	orchestrator := newScenario(t, service, store)

	count, err := orchestrator.SyncJobCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	report, err := orchestrator.RunRefreshAndMatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.NewJobs)
	assert.Equal(t, 13, store.JobCount())
	assert.Equal(t, Idle, orchestrator.State())

	results := orchestrator.Results()
	require.Equal(t, 2, results.Len())
	assert.Equal(t, 0.81, results.Items[0].Score)
	assert.Equal(t, 0.35, results.Items[1].Score)
	assert.Equal(t, []string{"Go Developer", "Support Engineer"}, results.Titles())

	assert.Equal(t, []string{"job-count", "update-jobs", "job-count", "match"}, service.Calls())
	assert.Equal(t, map[string]string{"threshold": "0.2", "entryLevel": "false"}, service.MatchForm())
}

func TestScenarioNoResume(t *testing.T) {
	service := &fakeService{corpus: 10}
	orchestrator := newScenario(t, service, params.New())

	_, err := orchestrator.RunRefreshAndMatch(context.Background())

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "no resume", err.Error())
	assert.Empty(t, service.Calls())
	assert.Equal(t, Idle, orchestrator.State())
}

func TestScenarioRefreshRejectedByService(t *testing.T) {
	service := &fakeService{corpus: 10, ingest: 3}

	store := storeWithResume()
	orchestrator := newScenario(t, service, store)

	_, err := orchestrator.RunMatch(context.Background())
	require.NoError(t, err)
	previous := orchestrator.Results()

	service.mu.Lock()
	service.failWith = http.StatusServiceUnavailable
	service.calls = nil
	service.mu.Unlock()

	_, err = orchestrator.RunRefreshAndMatch(context.Background())

	var remote *matcher.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
	assert.Equal(t, "crawler is down\n", remote.Body)

	assert.Equal(t, []string{"update-jobs"}, service.Calls())
	assert.Equal(t, previous, orchestrator.Results())
	assert.Equal(t, Idle, orchestrator.State())
	assert.Equal(t, int32(1), service.refreshHits.Load())
}
