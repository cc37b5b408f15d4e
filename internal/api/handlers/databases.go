// databases.go — HTTP handlers листинга и метаданных архивов баз.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/geoip-mirror/internal/api/errors"
	"github.com/bigkaa/geoip-mirror/internal/service"
)

// DatabasesHandler — обработчик endpoints листинга.
type DatabasesHandler struct {
	catalog *service.CatalogService
}

// NewDatabasesHandler создаёт обработчик endpoints листинга.
func NewDatabasesHandler(catalog *service.CatalogService) *DatabasesHandler {
	return &DatabasesHandler{catalog: catalog}
}

// ListDatabases обрабатывает GET /.
// Возвращает массив DatabaseRecord; при ошибке чтения любого файла — 500 без частичного списка.
func (h *DatabasesHandler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	records, serr := h.catalog.List(r.Context(), requestBaseURL(r))
	if serr != nil {
		errors.WriteError(w, serr.StatusCode, serr.Code, serr.Message)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetDatabase обрабатывает GET /api/v1/databases/{name}.
func (h *DatabasesHandler) GetDatabase(w http.ResponseWriter, r *http.Request) {
	name, ok := bindName(w, r)
	if !ok {
		return
	}
	if !validFileName(name) {
		errors.ValidationError(w, "Параметр name должен быть именем файла без разделителей пути")
		return
	}

	record, serr := h.catalog.Get(r.Context(), requestBaseURL(r), name)
	if serr != nil {
		errors.WriteError(w, serr.StatusCode, serr.Code, serr.Message)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// bindName извлекает path-параметр {name} так же, как это делает
// сгенерированный oapi-codegen код (style=simple, explode=false).
// При ошибке пишет 400 и возвращает false.
func bindName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string

	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный параметр name: %s", err.Error()))
		return "", false
	}

	return name, true
}

// validFileName — непустое имя без разделителей пути.
func validFileName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`)
}

// requestBaseURL возвращает базовый адрес запроса с завершающим "/":
// схема (https при TLS) и Host из запроса.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}
