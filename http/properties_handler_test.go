package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infa-ajaykumar/RealityBuilder/internal/cache"
	"github.com/infa-ajaykumar/RealityBuilder/internal/redisx"
	"github.com/infa-ajaykumar/RealityBuilder/internal/search"
)

type fakeSearcher struct {
	result     *search.Result
	meta       *search.Metadata
	err        error
	lastParams search.Params
	searches   int
}

func (f *fakeSearcher) Search(_ context.Context, p search.Params) (*search.Result, error) {
	f.searches++
	f.lastParams = p
	return f.result, f.err
}

func (f *fakeSearcher) Metadata(_ context.Context) (*search.Metadata, error) {
	return f.meta, f.err
}

type memBackend struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redisx.ErrNotFound
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key, val string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func newTestRouter(s *fakeSearcher) http.Handler {
	r := chi.NewRouter()
	RegisterProperties(r, PropertiesDeps{
		Search:    s,
		Cache:     cache.New(&memBackend{data: map[string]string{}}, "props", time.Minute),
		MetaCache: cache.New(&memBackend{data: map[string]string{}}, "meta", time.Minute),
	})
	return r
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPropertiesHappyPath(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{
		Items: []search.Document{{SourceURL: "u1", Title: "Sunny 2BR", Status: "active"}},
		Total: 1,
	}}
	rec := doGet(t, newTestRouter(s), "/properties?min_price=1500&max_price=2500&sort_by=price&order=asc")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp propertiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, int64(1), resp.TotalItems)
	assert.Equal(t, 10, resp.Limit)
	assert.Nil(t, resp.NextPage)
	assert.Nil(t, resp.PrevPage)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "u1", resp.Items[0].SourceURL)

	require.NotNil(t, s.lastParams.MinPrice)
	assert.Equal(t, 1500.0, *s.lastParams.MinPrice)
	assert.Equal(t, search.SortPrice, s.lastParams.SortBy)
}

func TestPropertiesPaginationLinks(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{Total: 35}}
	rec := doGet(t, newTestRouter(s), "/properties?page=2&limit=10")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp propertiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalPages)
	require.NotNil(t, resp.NextPage)
	assert.Equal(t, 3, *resp.NextPage)
	require.NotNil(t, resp.PrevPage)
	assert.Equal(t, 1, *resp.PrevPage)
}

func TestPropertiesBadRequests(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{}}
	router := newTestRouter(s)

	cases := []string{
		"/properties?page=0",
		"/properties?page=-1",
		"/properties?limit=0",
		"/properties?page=abc",
		"/properties?lat=47.6",
		"/properties?lat=47.6&lon=-122.3",
		"/properties?lat=47.6&lon=-122.3&radius_km=0",
		"/properties?lat=47.6&lon=-122.3&radius_km=-2",
		"/properties?min_price=cheap",
		"/properties?sort_by=distance",
		"/properties?sort_by=random",
		"/properties?order=sideways",
	}
	for _, target := range cases {
		rec := doGet(t, router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), target)
		assert.NotEmpty(t, body["error"], target)
	}
	assert.Zero(t, s.searches, "invalid requests never reach the search store")
}

func TestPropertiesGeoTripleAccepted(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{}}
	rec := doGet(t, newTestRouter(s), "/properties?lat=47.6&lon=-122.3&radius_km=5&sort_by=distance")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, s.lastParams.HasGeo())
	assert.Equal(t, search.SortDistance, s.lastParams.SortBy)
}

func TestPropertiesEmptyAmenitiesDoesNotFilter(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{}}
	rec := doGet(t, newTestRouter(s), "/properties?amenities=")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.lastParams.Amenities)
}

func TestPropertiesCacheHit(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{Total: 2}}
	router := newTestRouter(s)

	first := doGet(t, router, "/properties?min_price=1500&max_price=2500")
	require.Equal(t, http.StatusOK, first.Code)
	// Same parameters, different ordering: must hit the same cache entry.
	second := doGet(t, router, "/properties?max_price=2500&min_price=1500")
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, s.searches, "search store queried once")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
}

func TestPropertiesSearchErrorIs500(t *testing.T) {
	s := &fakeSearcher{err: errors.New("es exploded")}
	rec := doGet(t, newTestRouter(s), "/properties")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "search unavailable", body["error"], "internal detail must not leak")
}

func TestFilterMetadata(t *testing.T) {
	min := 1200.0
	max := 3500.0
	s := &fakeSearcher{meta: &search.Metadata{
		Price:         search.RangeFacet{Min: &min, Max: &max},
		PropertyTypes: []search.TermBucket{{Key: "apartment", Count: 12}},
	}}
	rec := doGet(t, newTestRouter(s), "/properties/filters/metadata")

	require.Equal(t, http.StatusOK, rec.Code)
	var meta search.Metadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	require.NotNil(t, meta.Price.Min)
	assert.Equal(t, 1200.0, *meta.Price.Min)
	require.Len(t, meta.PropertyTypes, 1)
	assert.Equal(t, int64(12), meta.PropertyTypes[0].Count)
}
