// download.go — сервис статической раздачи архивов.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/geoip-mirror/internal/api/errors"
	"github.com/bigkaa/geoip-mirror/internal/api/middleware"
	"github.com/bigkaa/geoip-mirror/internal/storage/filestore"
)

// ArchiveContentType — MIME-тип архива независимо от расширения на диске.
const ArchiveContentType = "application/gzip"

// ServeError — ошибка обработки запроса с HTTP-кодом.
type ServeError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// internalError — 500 с кодом INTERNAL_ERROR.
func internalError(message string) *ServeError {
	return &ServeError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeInternalError,
		Message:    message,
	}
}

// DownloadService — сервис скачивания архивов из выходной директории.
type DownloadService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDownloadService создаёт сервис скачивания архивов.
func NewDownloadService(store *filestore.FileStore, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:  store,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// Serve отдаёт архив name клиенту через http.ServeContent.
// Каталоги и вложенные пути не раздаются (404), листинга директории нет.
// Range и условные запросы обрабатываются http.ServeContent по умолчанию.
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, name string) *ServeError {
	file, info, err := s.store.Open(name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			middleware.OperationsTotal.WithLabelValues("download", "not_found").Inc()
			return &ServeError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Файл %s не найден", name),
			}
		}
		s.logger.Error("Ошибка открытия архива",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("download", "error").Inc()
		return internalError("Ошибка чтения файла")
	}
	defer file.Close()

	w.Header().Set("Content-Type", ArchiveContentType)
	w.Header().Set("Accept-Ranges", "bytes")

	// http.ServeContent сам выставляет Content-Length, Last-Modified
	// и обрабатывает Range / If-Modified-Since
	http.ServeContent(w, r, name, info.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()

	s.logger.Debug("Архив отдан",
		slog.String("name", name),
		slog.Int64("size", info.Size()),
	)

	return nil
}
