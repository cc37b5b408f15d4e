// files.go — HTTP handler статической раздачи архивов.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/geoip-mirror/internal/api/errors"
	"github.com/bigkaa/geoip-mirror/internal/service"
)

// FilesHandler — обработчик скачивания архивов.
type FilesHandler struct {
	downloadSvc *service.DownloadService
}

// NewFilesHandler создаёт обработчик скачивания архивов.
func NewFilesHandler(downloadSvc *service.DownloadService) *FilesHandler {
	return &FilesHandler{downloadSvc: downloadSvc}
}

// DownloadFile обрабатывает GET|HEAD /files/{name}.
// Отсутствующий файл — 404, листинг директории не поддерживается.
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "name") == "" {
		errors.NotFound(w, "Файл не указан")
		return
	}

	name, ok := bindName(w, r)
	if !ok {
		return
	}
	// Вложенные пути не раздаются: для статики это 404, а не 400
	if !validFileName(name) {
		errors.NotFound(w, fmt.Sprintf("Файл %s не найден", name))
		return
	}

	if serr := h.downloadSvc.Serve(w, r, name); serr != nil {
		errors.WriteError(w, serr.StatusCode, serr.Code, serr.Message)
	}
}
