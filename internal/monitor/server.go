// Package monitor serves a live web view of a simulation run: an
// ECharts scene rendering (obstacles, trail, robot) plus JSON endpoints
// with the latest step for headless consumers. The run loop publishes
// one record per step; the server renders whatever it has on request.
package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/fieldmark-robotics/avoid.sim/internal/httputil"
	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/telemetry"
	"github.com/fieldmark-robotics/avoid.sim/internal/units"
)

// maxTrail caps the retained trail length for rendering.
const maxTrail = 10000

// WebServer holds the live view state and HTTP plumbing.
type WebServer struct {
	mu     sync.RWMutex
	latest *telemetry.StepRecord
	trail  []telemetry.StepRecord

	obstacles      []perception.Obstacle
	robotRadius    float64
	obstacleRadius float64

	server *http.Server
}

// NewWebServer creates a monitor for the given scene. Radii are used
// for rendering only.
func NewWebServer(scene *perception.Scene, robotRadius, obstacleRadius float64) *WebServer {
	return &WebServer{
		obstacles:      scene.Obstacles(),
		robotRadius:    robotRadius,
		obstacleRadius: obstacleRadius,
	}
}

// Record accepts one step from the run loop. Implements
// telemetry.Recorder so the monitor attaches like any other sink.
func (ws *WebServer) Record(r telemetry.StepRecord) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.latest = &r
	ws.trail = append(ws.trail, r)
	if len(ws.trail) > maxTrail {
		ws.trail = ws.trail[len(ws.trail)-maxTrail:]
	}
	return nil
}

// Routes attaches the monitor's handlers to the mux.
func (ws *WebServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", ws.handleDashboard)
	mux.HandleFunc("/chart", ws.handleSceneChart)
	mux.HandleFunc("/api/state", ws.handleState)
	mux.HandleFunc("/api/history", ws.handleHistory)
}

// Start serves the monitor on addr in a background goroutine.
func (ws *WebServer) Start(addr string) {
	mux := http.NewServeMux()
	ws.Routes(mux)
	ws.server = &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Printf("monitor listening on %s", addr)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("monitor server error: %v", err)
		}
	}()
}

// Shutdown stops the HTTP server.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	return ws.server.Shutdown(ctx)
}

// snapshot copies the current view state under the read lock.
func (ws *WebServer) snapshot() (latest *telemetry.StepRecord, trail []telemetry.StepRecord) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.latest != nil {
		l := *ws.latest
		latest = &l
	}
	trail = make([]telemetry.StepRecord, len(ws.trail))
	copy(trail, ws.trail)
	return latest, trail
}

// stateResponse is the JSON shape of /api/state.
type stateResponse struct {
	Running bool                  `json:"running"`
	Status  string                `json:"status,omitempty"`
	Step    *telemetry.StepRecord `json:"step,omitempty"`
}

func (ws *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	latest, _ := ws.snapshot()
	resp := stateResponse{}
	if latest != nil {
		resp.Running = true
		resp.Step = latest
		resp.Status = fmt.Sprintf("state=%s dmin=%.2f m v=%.2f m/s w=%.2f rad/s heading=%.0f deg reason=%s",
			latest.State, latest.NearestDist, latest.V, latest.Omega,
			units.RadToDeg(units.WrapPi(latest.Theta)), latest.Reason)
	}
	httputil.WriteJSONOK(w, resp)
}

func (ws *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	_, trail := ws.snapshot()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"obstacles": ws.obstacles,
		"steps":     trail,
	})
}
