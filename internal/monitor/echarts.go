package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fieldmark-robotics/avoid.sim/internal/httputil"
)

// dashboardHTML wraps the scene chart in a self-refreshing page so the
// view tracks the run without any client-side code.
const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
  <title>avoid.sim live view</title>
  <meta http-equiv="refresh" content="1">
  <style>body { margin: 0; background: #100c2a; }</style>
</head>
<body>
  <iframe src="/chart" style="border:0;width:100vw;height:100vh"></iframe>
</body>
</html>`

func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

// handleSceneChart renders the scene as an ECharts page: obstacle
// markers, the robot's trail, the robot itself, and a short heading
// segment, with the status line as the chart subtitle.
func (ws *WebServer) handleSceneChart(w http.ResponseWriter, r *http.Request) {
	latest, trail := ws.snapshot()

	// Symmetric bounds covering obstacles and trail, with padding.
	maxAbs := 1.0
	for _, o := range ws.obstacles {
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(o.X), math.Abs(o.Y)))
	}
	for _, s := range trail {
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(s.X), math.Abs(s.Y)))
	}
	pad := maxAbs * 1.1

	subtitle := "waiting for first step"
	if latest != nil {
		subtitle = fmt.Sprintf("t=%.2f s  state=%s  dmin=%.2f m  v=%.2f m/s  w=%.2f rad/s  reason=%s",
			latest.T, latest.State, latest.NearestDist, latest.V, latest.Omega, latest.Reason)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "avoid.sim scene", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Obstacle avoidance", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	trailData := make([]opts.LineData, 0, len(trail))
	for _, s := range trail {
		trailData = append(trailData, opts.LineData{Value: []interface{}{s.X, s.Y}})
	}
	line.AddSeries("trail", trailData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	obstacleData := make([]opts.LineData, 0, len(ws.obstacles))
	for _, o := range ws.obstacles {
		obstacleData = append(obstacleData, opts.LineData{Value: []interface{}{o.X, o.Y}})
	}
	line.AddSeries("obstacles", obstacleData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"}))

	if latest != nil {
		// Robot body plus a fixed-length heading segment.
		const headingLen = 0.18
		robotData := []opts.LineData{
			{Value: []interface{}{latest.X, latest.Y}},
			{Value: []interface{}{
				latest.X + headingLen*math.Cos(latest.Theta),
				latest.Y + headingLen*math.Sin(latest.Theta),
			}},
		}
		line.AddSeries("robot", robotData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"}))
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
