package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Items []any `json:"items"`
	Total int   `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

// newBackend serves fixed bodies per path and counts requests.
func newBackend(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if h, ok := routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func jsonBody(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestResourceSuccess(t *testing.T) {
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/workflows": jsonBody(http.StatusOK, `{"items":[],"total":0,"skip":0,"limit":20}`),
	})

	res := NewResource[page](NewClient(ts.URL, time.Second), nil)
	defer res.Close()

	res.Activate("/api/workflows", Options{})
	res.Wait()

	s := res.State()
	require.NoError(t, s.Err)
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.Data)
	assert.Equal(t, page{Items: []any{}, Total: 0, Skip: 0, Limit: 20}, *s.Data)
}

func TestResourceHTTPError(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
				"/api/workflows": jsonBody(code, `{"detail":"down"}`),
			})

			res := NewResource[page](NewClient(ts.URL, time.Second), nil)
			defer res.Close()

			res.Activate("/api/workflows", Options{})
			res.Wait()

			s := res.State()
			assert.Nil(t, s.Data)
			assert.False(t, s.IsLoading)
			require.Error(t, s.Err)

			var httpErr *HTTPError
			require.True(t, errors.As(s.Err, &httpErr))
			assert.Equal(t, code, httpErr.StatusCode)
			assert.Equal(t, "/api/workflows", httpErr.Path)
		})
	}
}

func TestResource503Message(t *testing.T) {
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/workflows": jsonBody(http.StatusServiceUnavailable, ``),
	})

	res := NewResource[page](NewClient(ts.URL, time.Second), nil)
	defer res.Close()
	res.Activate("/api/workflows", Options{})
	res.Wait()

	s := res.State()
	assert.Nil(t, s.Data)
	assert.False(t, s.IsLoading)
	assert.EqualError(t, s.Err, "HTTP 503")
}

func TestResourceParseErrorClearsData(t *testing.T) {
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/good": jsonBody(http.StatusOK, `{"total":3}`),
		"/bad":  jsonBody(http.StatusOK, `{"total":`),
	})

	res := NewResource[page](NewClient(ts.URL, time.Second), nil)
	defer res.Close()

	res.Activate("/good", Options{})
	res.Wait()
	require.NotNil(t, res.State().Data)

	res.Activate("/bad", Options{})
	res.Wait()

	s := res.State()
	assert.Nil(t, s.Data)
	assert.False(t, s.IsLoading)
	require.Error(t, s.Err)
	assert.Contains(t, s.Err.Error(), "decode /bad")
}

func TestResourceTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	res := NewResource[page](NewClient(url, time.Second), nil)
	defer res.Close()
	res.Activate("/api/workflows", Options{})
	res.Wait()

	s := res.State()
	assert.Nil(t, s.Data)
	assert.False(t, s.IsLoading)
	assert.Error(t, s.Err)
}

func TestResourceSkip(t *testing.T) {
	ts, hits := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/a": jsonBody(http.StatusOK, `{"total":1}`),
		"/b": jsonBody(http.StatusOK, `{"total":2}`),
	})

	res := NewResource[page](NewClient(ts.URL, time.Second), nil)
	defer res.Close()

	res.Activate("/a", Options{Skip: true})
	res.Wait()
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
	assert.Equal(t, State[page]{IsLoading: true}, res.State())

	res.Activate("/a", Options{})
	res.Wait()
	before := res.State()
	require.Equal(t, 1, before.Data.Total)

	res.Activate("/b", Options{Skip: true})
	res.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, before, res.State())

	// Refetch honours skip as well.
	res.Refetch()
	res.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestResourceSameDependenciesNoRefetch(t *testing.T) {
	ts, hits := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/a": jsonBody(http.StatusOK, `{"total":1}`),
	})

	res := NewResource[page](NewClient(ts.URL, time.Second), nil)
	defer res.Close()

	res.Activate("/a", Options{})
	res.Activate("/a", Options{})
	res.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	res.Refetch()
	res.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestResourceLoadingDuringFlight(t *testing.T) {
	release := make(chan struct{})
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/slow": func(w http.ResponseWriter, r *http.Request) {
			<-release
			jsonBody(http.StatusOK, `{"total":7}`)(w, r)
		},
	})

	var mu sync.Mutex
	var seen []bool
	res := NewResource[page](NewClient(ts.URL, 5*time.Second), func(s State[page]) {
		mu.Lock()
		seen = append(seen, s.IsLoading)
		mu.Unlock()
	})
	defer res.Close()

	res.Activate("/slow", Options{})
	s := res.State()
	assert.True(t, s.IsLoading)
	assert.Nil(t, s.Data)

	close(release)
	res.Wait()

	assert.False(t, res.State().IsLoading)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}

func TestResourceDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/old": func(w http.ResponseWriter, r *http.Request) {
			<-release
			jsonBody(http.StatusOK, `{"total":1}`)(w, r)
		},
		"/new": jsonBody(http.StatusOK, `{"total":2}`),
	})

	res := NewResource[page](NewClient(ts.URL, 5*time.Second), nil)
	defer res.Close()

	res.Activate("/old", Options{})
	res.Activate("/new", Options{})

	require.Eventually(t, func() bool {
		s := res.State()
		return s.Data != nil && !s.IsLoading
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	res.Wait()

	s := res.State()
	require.NotNil(t, s.Data)
	assert.Equal(t, 2, s.Data.Total)
	assert.Equal(t, "/new", res.Path())
}

func TestResourceCloseSuppressesUpdates(t *testing.T) {
	release := make(chan struct{})
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/slow": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			jsonBody(http.StatusOK, `{"total":9}`)(w, r)
		},
	})

	var calls int32
	res := NewResource[page](NewClient(ts.URL, 5*time.Second), func(State[page]) {
		atomic.AddInt32(&calls, 1)
	})

	res.Activate("/slow", Options{})
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	res.Close()
	close(release)
	res.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	s := res.State()
	assert.Nil(t, s.Data)
	assert.NoError(t, s.Err)

	// activation after close is ignored
	res.Activate("/slow", Options{})
	res.Refetch()
	res.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet(t *testing.T) {
	ts, _ := newBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/health": jsonBody(http.StatusOK, `{"total":4}`),
	})
	c := NewClient(ts.URL, time.Second)
	assert.Equal(t, ts.URL, c.BaseURL())

	p, err := Get[page](context.Background(), c, "/api/health")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Total)

	_, err = Get[page](context.Background(), c, "/missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("boom")))
}
