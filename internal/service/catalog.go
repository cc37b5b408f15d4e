// catalog.go — сервис листинга архивов баз.
// Каждый запрос заново перечисляет выходную директорию и пересчитывает
// MD5 каждого файла: ничего не кэшируется, ответ всегда отражает диск.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/geoip-mirror/internal/api/errors"
	"github.com/bigkaa/geoip-mirror/internal/api/middleware"
	"github.com/bigkaa/geoip-mirror/internal/domain/model"
	"github.com/bigkaa/geoip-mirror/internal/storage/filestore"
)

// FilesPrefix — префикс пути статической раздачи архивов (без ведущего "/").
const FilesPrefix = "files/"

// CatalogService — сервис формирования DatabaseRecord по файлам выходной директории.
type CatalogService struct {
	store  *filestore.FileStore
	now    func() time.Time
	logger *slog.Logger
}

// NewCatalogService создаёт сервис листинга.
func NewCatalogService(store *filestore.FileStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		now:    time.Now,
		logger: logger.With(slog.String("component", "catalog_service")),
	}
}

// List возвращает по одной записи на каждый обычный файл выходной директории
// в порядке перечисления. baseURL — базовый адрес запроса с завершающим "/".
// Ошибка чтения любого файла прерывает весь листинг: частичный список не отдаётся.
func (s *CatalogService) List(ctx context.Context, baseURL string) ([]model.DatabaseRecord, *ServeError) {
	names, err := s.store.ListRegular()
	if err != nil {
		s.logger.Error("Ошибка перечисления архивов", slog.String("error", err.Error()))
		middleware.OperationsTotal.WithLabelValues("list", "error").Inc()
		return nil, internalError("Ошибка чтения директории архивов")
	}

	records := make([]model.DatabaseRecord, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, internalError("Запрос отменён")
		}

		// Файл, исчезнувший после перечисления, — тоже ошибка ввода-вывода
		record, err := s.record(name, baseURL)
		if err != nil {
			s.logger.Error("Ошибка чтения архива",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
			middleware.OperationsTotal.WithLabelValues("list", "error").Inc()
			return nil, internalError(fmt.Sprintf("Ошибка чтения архива %s", name))
		}
		records = append(records, *record)
	}

	middleware.OperationsTotal.WithLabelValues("list", "success").Inc()
	middleware.ArchivesTotal.Set(float64(len(records)))

	s.logger.Debug("Листинг сформирован", slog.Int("count", len(records)))
	return records, nil
}

// Get возвращает запись для одного архива. 404, если файла нет.
func (s *CatalogService) Get(_ context.Context, baseURL, name string) (*model.DatabaseRecord, *ServeError) {
	record, err := s.record(name, baseURL)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("get", "error").Inc()
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, &ServeError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("База %s не найдена", name),
			}
		}
		s.logger.Error("Ошибка чтения архива",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, internalError(fmt.Sprintf("Ошибка чтения архива %s", name))
	}
	middleware.OperationsTotal.WithLabelValues("get", "success").Inc()
	return record, nil
}

// record читает файл, считает MD5 и формирует запись.
func (s *CatalogService) record(name, baseURL string) (*model.DatabaseRecord, error) {
	checksum, n, err := s.store.ComputeChecksum(name)
	if err != nil {
		return nil, err
	}

	middleware.HashedBytesTotal.Add(float64(n))

	record := model.NewDatabaseRecord(name, baseURL+FilesPrefix+name, checksum, s.now())
	return &record, nil
}
