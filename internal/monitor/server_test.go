package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
	"github.com/fieldmark-robotics/avoid.sim/internal/telemetry"
	"github.com/fieldmark-robotics/avoid.sim/internal/testutil"
)

func newTestServer() *WebServer {
	scene := perception.NewScene([]perception.Obstacle{{X: 1.0, Y: 0.0}, {X: 1.2, Y: 0.35}})
	return NewWebServer(scene, 0.06, 0.07)
}

func serve(t *testing.T, ws *WebServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	ws.Routes(mux)
	return testutil.ServeRequest(t, mux, path)
}

func TestStateBeforeFirstStep(t *testing.T) {
	ws := newTestServer()

	rec := serve(t, ws, "/api/state")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		Running bool `json:"running"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Running {
		t.Error("running = true before any step")
	}
}

func TestStateReflectsLatestStep(t *testing.T) {
	ws := newTestServer()
	if err := ws.Record(telemetry.StepRecord{
		T: 0.05, NearestDist: 0.98, State: policy.StateForward,
		Reason: policy.ReasonClear, V: 0.25,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rec := serve(t, ws, "/api/state")
	var resp struct {
		Running bool   `json:"running"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Running {
		t.Error("running = false after a step")
	}
	if !strings.Contains(resp.Status, "state=FORWARD") {
		t.Errorf("status line %q missing state", resp.Status)
	}
	if !strings.Contains(resp.Status, "reason=clear") {
		t.Errorf("status line %q missing reason", resp.Status)
	}
}

func TestHistoryIncludesObstaclesAndTrail(t *testing.T) {
	ws := newTestServer()
	for i := 0; i < 3; i++ {
		_ = ws.Record(telemetry.StepRecord{T: float64(i+1) * 0.05, State: policy.StateForward, Reason: policy.ReasonClear})
	}

	rec := serve(t, ws, "/api/history")
	var resp struct {
		Obstacles []perception.Obstacle  `json:"obstacles"`
		Steps     []telemetry.StepRecord `json:"steps"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Obstacles) != 2 {
		t.Errorf("obstacles = %d, want 2", len(resp.Obstacles))
	}
	if len(resp.Steps) != 3 {
		t.Errorf("steps = %d, want 3", len(resp.Steps))
	}
}

func TestStateRejectsPost(t *testing.T) {
	ws := newTestServer()
	mux := http.NewServeMux()
	ws.Routes(mux)
	req := httptest.NewRequest(http.MethodPost, "/api/state", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSceneChartRenders(t *testing.T) {
	ws := newTestServer()
	_ = ws.Record(telemetry.StepRecord{T: 0.05, X: 0.01, State: policy.StateForward, Reason: policy.ReasonClear, V: 0.25})

	rec := serve(t, ws, "/chart")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, "echarts") {
		t.Error("chart response does not embed echarts")
	}
	if !strings.Contains(body, "state=FORWARD") {
		t.Error("chart subtitle missing status line")
	}
}

func TestDashboardServesRefreshingPage(t *testing.T) {
	ws := newTestServer()
	rec := serve(t, ws, "/")
	if !strings.Contains(rec.Body.String(), `http-equiv="refresh"`) {
		t.Error("dashboard is not self-refreshing")
	}
}

func TestTrailCapped(t *testing.T) {
	ws := newTestServer()
	for i := 0; i < maxTrail+50; i++ {
		_ = ws.Record(telemetry.StepRecord{T: float64(i)})
	}
	_, trail := ws.snapshot()
	if len(trail) != maxTrail {
		t.Errorf("trail length = %d, want %d", len(trail), maxTrail)
	}
	// The oldest entries are the ones dropped.
	if trail[0].T != 50 {
		t.Errorf("trail[0].T = %v, want 50", trail[0].T)
	}
}
