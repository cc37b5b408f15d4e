// metrics.go — Prometheus HTTP метрики GeoIP Mirror.
// Регистрирует метрики: gm_http_requests_total, gm_http_request_duration_seconds.
// Бизнес-метрики (gm_archives, gm_operations_total и др.) экспортируются
// для обновления из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gm_http_requests_total",
			Help: "Общее количество HTTP-запросов к GeoIP Mirror",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к GeoIP Mirror в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// ArchivesTotal — количество архивов в последнем листинге (gauge).
	ArchivesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gm_archives",
			Help: "Количество архивов баз в последнем листинге",
		},
	)

	// HashedBytesTotal — объём данных, прочитанных для подсчёта MD5.
	HashedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gm_hashed_bytes_total",
			Help: "Объём прочитанных для подсчёта контрольных сумм данных в байтах",
		},
	)

	// OperationsTotal — общее количество операций над архивами.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gm_operations_total",
			Help: "Общее количество операций над архивами",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (имена файлов заменяются на {name})
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// normalizePath заменяет имена файлов в пути на {name} для предотвращения
// взрывного роста кардинальности метрик.
// /files/GeoLite2-City.mmdb → /files/{name}
func normalizePath(path string) string {
	switch {
	case path == "/",
		path == "/health/live",
		path == "/health/ready",
		path == "/metrics",
		path == "/api/openapi.yaml":
		return path
	case strings.HasPrefix(path, "/files/"):
		return "/files/{name}"
	case strings.HasPrefix(path, "/api/v1/databases/"):
		return "/api/v1/databases/{name}"
	}
	return "other"
}
