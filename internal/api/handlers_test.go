package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/server/config"
	"kiosk/server/internal/feed"
	"kiosk/server/internal/inventory"
	"kiosk/server/internal/models"
	"kiosk/server/internal/processor"
	"kiosk/server/internal/queue"
	"kiosk/server/internal/session"
)

const testFeed = `{
	"property": {"name": "Kukuiula", "logo": "/logo.png", "lat": 21.89, "lng": -159.47},
	"available": [
		{"id": "12", "marketing_home_type": "Plantation Cottage", "builder_marketing_name": "Makai Builders", "price": 1250000, "lot_status": "Available Home", "start_date": 1700000000, "complete_date": 1735689600},
		{"id": "14", "lot_type": "Ocean View", "price": "", "lot_status": "Sold"},
		{"id": "15", "lot_type": "Garden", "price": 800000, "lot_status": "Available Homesite"}
	],
	"mapLots": [
		{"id": "12", "lot_status": "Available Home", "coordinates": [[[-159.47,21.89],[-159.46,21.89],[-159.46,21.90],[-159.47,21.90]]]},
		{"id": "13", "lot_status": "Contract", "coordinates": [[[-159.45,21.89],[-159.44,21.89],[-159.44,21.90]]]}
	]
}`

type fakeFeed struct {
	mu     sync.Mutex
	state  feed.State
	resets int
}

func (f *fakeFeed) State() feed.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.state = feed.State{}
}

type fakeSink struct {
	events []models.ActivityEvent
	err    error
}

func (s *fakeSink) Len() int { return 0 }

func (s *fakeSink) Push(ev models.ActivityEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type fakeSession struct {
	snap session.Snapshot
}

func (s fakeSession) State() session.Snapshot { return s.snap }

type testEnv struct {
	router    *gin.Engine
	feed      *fakeFeed
	processor *processor.Processor
	sink      *fakeSink
	nav       *Navigation
}

func newTestEnv(t *testing.T, payload string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()

	inv, err := inventory.Open(logger)
	require.NoError(t, err)
	t.Cleanup(func() { inv.Close() })

	proc := processor.NewProcessor(inv, &config.Config{}, logger)
	ff := &fakeFeed{}
	if payload != "" {
		var raw models.RawFeed
		require.NoError(t, json.Unmarshal([]byte(payload), &raw))
		require.NoError(t, proc.Process(context.Background(), &raw))
		ff.state = feed.State{Data: &raw, Initialized: true, LoadedAt: time.Now()}
	}

	env := &testEnv{
		feed:      ff,
		processor: proc,
		sink:      &fakeSink{},
		nav:       NewNavigation("/", logger),
	}
	handler := NewHandler(Dependencies{
		Feed:       env.feed,
		Snapshots:  proc,
		Inventory:  inv,
		Events:     env.sink,
		Session:    fakeSession{snap: session.Snapshot{State: session.Active, SessionID: "abc"}},
		Navigation: env.nav,
	}, logger)
	env.router = NewRouter([]string{"*"}, handler)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestSnapshotUnavailable(t *testing.T) {
	tests := []struct {
		name           string
		state          feed.State
		expectedStatus int
		expectedKey    string
		expectedValue  string
	}{
		{
			name:           "Loading",
			state:          feed.State{Loading: true},
			expectedStatus: http.StatusAccepted,
			expectedKey:    "status",
			expectedValue:  "loading",
		},
		{
			name:           "Fetch failed",
			state:          feed.State{Initialized: true, Error: "failed to fetch property data: unexpected status code: 502 Bad Gateway"},
			expectedStatus: http.StatusServiceUnavailable,
			expectedKey:    "error",
			expectedValue:  "failed to fetch property data: unexpected status code: 502 Bad Gateway",
		},
		{
			name:           "Fetched but not processed",
			state:          feed.State{Initialized: true},
			expectedStatus: http.StatusAccepted,
			expectedKey:    "status",
			expectedValue:  "loading",
		},
		{
			name:           "Not loaded",
			state:          feed.State{},
			expectedStatus: http.StatusServiceUnavailable,
			expectedKey:    "error",
			expectedValue:  "feed not loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			env.feed.state = tt.state

			for _, path := range []string{"/api/site", "/api/homes", "/api/lots", "/api/lots/12", "/api/map/style"} {
				w, body := env.do(t, http.MethodGet, path, "")
				assert.Equal(t, tt.expectedStatus, w.Code, path)
				assert.Equal(t, tt.expectedValue, body[tt.expectedKey], path)
			}
		})
	}
}

func TestGetSite(t *testing.T) {
	env := newTestEnv(t, testFeed)

	w, body := env.do(t, http.MethodGet, "/api/site", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kukuiula", body["name"])
	assert.Equal(t, "/logo.png", body["logo"])
	assert.Equal(t, []interface{}{-159.47, 21.89}, body["center"])
	assert.Equal(t, float64(16), body["zoom"])
}

func TestSiteCamera_Zoom(t *testing.T) {
	zoom := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		zoom     *float64
		expected float64
	}{
		{name: "Missing", zoom: nil, expected: 16},
		{name: "Zero", zoom: zoom(0), expected: 16},
		{name: "Negative", zoom: zoom(-3), expected: 16},
		{name: "Explicit", zoom: zoom(14.5), expected: 14.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := siteCamera(models.SiteInfo{Zoom: tt.zoom})
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGetSite_ZeroZoomFallsBack(t *testing.T) {
	payload := strings.Replace(testFeed, `"lng": -159.47}`, `"lng": -159.47, "zoom": 0}`, 1)
	env := newTestEnv(t, payload)

	w, body := env.do(t, http.MethodGet, "/api/site", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(16), body["zoom"])
}

func TestGetFeed(t *testing.T) {
	env := newTestEnv(t, testFeed)

	w, body := env.do(t, http.MethodGet, "/api/feed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["initialized"])
	assert.Equal(t, false, body["loading"])
	assert.Equal(t, float64(3), body["property_count"])
	assert.Equal(t, float64(2), body["lot_count"])
	assert.Equal(t, float64(3), body["indexed_count"])
}

func TestResetFeed(t *testing.T) {
	env := newTestEnv(t, testFeed)

	w, _ := env.do(t, http.MethodPost, "/api/feed/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.feed.resets)
	assert.Nil(t, env.processor.Snapshot())

	w, body := env.do(t, http.MethodGet, "/api/site", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "feed not loaded", body["error"])
}

func TestGetHomes(t *testing.T) {
	env := newTestEnv(t, testFeed)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []string
	}{
		{name: "All", query: "", expectedStatus: http.StatusOK, expectedIDs: []string{"12", "14", "15"}},
		{name: "Homes", query: "?filter=homes", expectedStatus: http.StatusOK, expectedIDs: []string{"12"}},
		{name: "Homesites", query: "?filter=homesites", expectedStatus: http.StatusOK, expectedIDs: []string{"14", "15"}},
		{name: "Available", query: "?status=available", expectedStatus: http.StatusOK, expectedIDs: []string{"12", "15"}},
		{name: "Sold homesites", query: "?filter=homesites&status=sold", expectedStatus: http.StatusOK, expectedIDs: []string{"14"}},
		{name: "Unknown filter", query: "?filter=condos", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/homes"+tt.query, nil)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var homes []PropertyDetail
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &homes))
			ids := make([]string, len(homes))
			for i, h := range homes {
				ids[i] = h.ID
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestGetHome(t *testing.T) {
	env := newTestEnv(t, testFeed)

	w, body := env.do(t, http.MethodGet, "/api/homes/12", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Plantation Cottage", body["name"])
	assert.Equal(t, "$1,250,000", body["price"])
	assert.Equal(t, "Makai Builders", body["builder_marketing_name"])
	assert.Equal(t, float64(2025), body["completion_year"])

	w, body = env.do(t, http.MethodGet, "/api/homes/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Property not found", body["error"])
}

func TestGetHome_HidesBuilder(t *testing.T) {
	payload := strings.Replace(testFeed, `"mapLots"`, `"custom": {"personalize": {"noBuilder": true}}, "mapLots"`, 1)
	env := newTestEnv(t, payload)

	w, body := env.do(t, http.MethodGet, "/api/homes/12", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, present := body["builder_marketing_name"]
	assert.False(t, present)
}

func TestGetLots(t *testing.T) {
	env := newTestEnv(t, testFeed)

	w, body := env.do(t, http.MethodGet, "/api/lots", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FeatureCollection", body["type"])

	features := body["features"].([]interface{})
	require.Len(t, features, 2)
	props := features[0].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "12", props["id"])
	assert.Equal(t, "#2563eb", props["fill_color"])
	assert.Equal(t, 0.7, props["fill_opacity"])
}

func TestGetLot(t *testing.T) {
	env := newTestEnv(t, testFeed)

	tests := []struct {
		name         string
		id           string
		expectedOpen bool
	}{
		{name: "Matched lot opens detail", id: "12", expectedOpen: true},
		{name: "Lot without listing stays closed", id: "13", expectedOpen: false},
		{name: "Unknown lot stays closed", id: "nope", expectedOpen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodGet, "/api/lots/"+tt.id, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expectedOpen, body["open"])
			if tt.expectedOpen {
				property := body["property"].(map[string]interface{})
				assert.Equal(t, tt.id, property["id"])
			} else {
				assert.Nil(t, body["property"])
			}
		})
	}
}

func TestGetMapStyle(t *testing.T) {
	env := newTestEnv(t, testFeed)

	w, body := env.do(t, http.MethodGet, "/api/map/style", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["legend"], 3)
	assert.Equal(t, float64(16), body["zoom"])

	fill := body["fill"].(map[string]interface{})
	expr := fill["fill-color"].([]interface{})
	assert.Equal(t, "match", expr[0])
	assert.Equal(t, "#cfcfcf", expr[len(expr)-1])
}

func TestPostActivity(t *testing.T) {
	env := newTestEnv(t, "")

	w, body := env.do(t, http.MethodPost, "/api/session/activity", `{"type":"touchstart"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "accepted", body["status"])
	require.Len(t, env.sink.events, 1)
	assert.Equal(t, models.ActivityTouchStart, env.sink.events[0].Kind)

	w, _ = env.do(t, http.MethodPost, "/api/session/activity", `{"type":"mousemove"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/session/activity", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, env.sink.events, 1)

	env.sink.err = queue.ErrQueueFull
	w, _ = env.do(t, http.MethodPost, "/api/session/activity", `{"type":"click"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNavigateAndSession(t *testing.T) {
	env := newTestEnv(t, "")

	w, body := env.do(t, http.MethodPost, "/api/navigate", `{"path":"/map"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "map", body["view"].(map[string]interface{})["name"])

	w, _ = env.do(t, http.MethodPost, "/api/navigate", `{"path":"/admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", body["state"])
	assert.Equal(t, "abc", body["session_id"])
	assert.Equal(t, "/map", body["view"].(map[string]interface{})["path"])
	assert.Equal(t, []interface{}{"/", "/map", "/homes", "/info"}, body["views"])
	assert.Equal(t, float64(0), body["pending_events"])

	env.nav.NavigateDefault()
	assert.Equal(t, "/", env.nav.Current().Path)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"http://a", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"http://kiosk.local"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"http://kiosk.local"}, cfg.AllowOrigins)
}
