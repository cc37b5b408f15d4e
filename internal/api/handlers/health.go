// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/bigkaa/geoip-mirror/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// serviceName — имя сервиса в ответах health.
const serviceName = "geoip-mirror"

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// archiveDir — директория раздаваемых архивов
	archiveDir string
	// rawDir — директория исходных *.mmdb
	rawDir string
}

// NewHealthHandler создаёт обработчик health endpoints.
// Пустой путь отключает соответствующую проверку.
func NewHealthHandler(archiveDir, rawDir string) *HealthHandler {
	return &HealthHandler{
		version:    config.Version,
		archiveDir: archiveDir,
		rawDir:     rawDir,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   serviceName,
	})
}

// HealthReady обрабатывает GET /health/ready.
// Недоступная директория архивов — fail (503), директория исходников — degraded.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	archiveCheck := checkReadableDir(h.archiveDir, "Директория архивов недоступна: ")
	if archiveCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	rawCheck := checkReadableDir(h.rawDir, "Директория исходных баз недоступна: ")
	if rawCheck["status"] != "ok" && overallStatus != statusFail {
		overallStatus = "degraded"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   serviceName,
		"checks": map[string]any{
			"archive_dir": archiveCheck,
			"raw_dir":     rawCheck,
		},
	})
}

// checkReadableDir проверяет, что директория существует и читается.
func checkReadableDir(dir, failPrefix string) map[string]any {
	if dir == "" {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	if _, err := os.ReadDir(dir); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": failPrefix + err.Error(),
		}
	}

	return map[string]any{
		"status": "ok",
	}
}
