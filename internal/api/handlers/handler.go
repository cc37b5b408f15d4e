// handler.go — APIHandler собирает доменные handler'ы в один объект,
// маршруты которого регистрирует server.New.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/geoip-mirror/internal/api/openapi"
)

// APIHandler — единая точка входа для всех endpoints.
type APIHandler struct {
	databases   *DatabasesHandler
	files       *FilesHandler
	health      *HealthHandler
	promHandler http.Handler
	logger      *slog.Logger
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(
	databases *DatabasesHandler,
	files *FilesHandler,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		databases:   databases,
		files:       files,
		health:      health,
		promHandler: promhttp.Handler(),
		logger:      logger.With(slog.String("component", "api_handler")),
	}
}

// --- Databases ---

func (h *APIHandler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	h.databases.ListDatabases(w, r)
}

func (h *APIHandler) GetDatabase(w http.ResponseWriter, r *http.Request) {
	h.databases.GetDatabase(w, r)
}

// --- Files ---

func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	h.files.DownloadFile(w, r)
}

// --- Health ---

func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// --- System ---

func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	openapi.Handler(w, r)
}

// writeJSON вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
