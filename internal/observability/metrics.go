package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 签到结果标签
const (
	ResultRecorded  = "recorded"
	ResultDuplicate = "duplicate"
	ResultNotFound  = "not_found"
	ResultNoEvent   = "no_active_event"
	ResultError     = "error"
)

var (
	checkInsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kunyit",
		Subsystem: "attendance",
		Name:      "checkins_total",
		Help:      "Check-in attempts by method and result.",
	}, []string{"method", "result"})

	importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kunyit",
		Subsystem: "people",
		Name:      "import_rows_total",
		Help:      "Rows processed by bulk person import, by outcome.",
	}, []string{"outcome"})

	qrRenderSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kunyit",
		Subsystem: "qrcode",
		Name:      "render_duration_seconds",
		Help:      "Latency of QR image rendering by renderer.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"renderer", "status"})

	httpRequestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kunyit",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(checkInsTotal, importRowsTotal, qrRenderSeconds, httpRequestSeconds)
}

// RecordCheckIn 记录一次签到尝试
func RecordCheckIn(method, result string) {
	checkInsTotal.WithLabelValues(method, result).Inc()
}

// RecordImport 记录导入成功/失败行数
func RecordImport(success, failed int) {
	if success > 0 {
		importRowsTotal.WithLabelValues("success").Add(float64(success))
	}
	if failed > 0 {
		importRowsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// ObserveQRRender 记录渲染耗时
func ObserveQRRender(renderer string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	qrRenderSeconds.WithLabelValues(renderer, status).Observe(time.Since(start).Seconds())
}

// ObserveHTTPRequest 记录请求耗时；route 使用路由模板，避免 ID 造成标签爆炸
func ObserveHTTPRequest(method, route string, status int, latency time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestSeconds.WithLabelValues(method, route, statusClass(status)).Observe(latency.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
